package mapbuffer

import (
	"io"
	"os"
	"time"

	"github.com/google/btree"
	"go.uber.org/zap"

	"mapstore/internal/world"
)

const (
	btreeDegree             = 32
	defaultProgressInterval = 500 * time.Millisecond
)

type resident struct {
	coord world.ChunkCoord
	chunk Chunk
}

func residentLess(a, b resident) bool {
	return a.coord.Less(b.coord)
}

// Buffer owns every resident chunk of the world, loads missing chunks from
// their quad files and writes quads back on save.
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	env   Environment
	codec Codec

	chunks *btree.BTreeG[resident]
	dirs   *dirCache

	logger           *zap.Logger
	metrics          *Metrics
	progress         ProgressSink
	pump             EventPump
	progressInterval time.Duration
	compression      Compression
	fileMode         os.FileMode
	dirCacheSize     int
	onSaved          func()
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithLogger sets the logger anomalies and failures are reported to.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Buffer) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics sets the collectors updated by the buffer.
func WithMetrics(m *Metrics) Option {
	return func(b *Buffer) {
		if m != nil {
			b.metrics = m
		}
	}
}

// WithProgress sets the sink receiving save progress.
func WithProgress(sink ProgressSink) Option {
	return func(b *Buffer) {
		if sink != nil {
			b.progress = sink
		}
	}
}

// WithEventPump sets the pump invoked alongside progress reports.
func WithEventPump(pump EventPump) Option {
	return func(b *Buffer) {
		if pump != nil {
			b.pump = pump
		}
	}
}

// WithProgressInterval bounds how often progress is reported during a save.
func WithProgressInterval(d time.Duration) Option {
	return func(b *Buffer) {
		if d > 0 {
			b.progressInterval = d
		}
	}
}

// WithCompression selects how new quad files are written.
func WithCompression(c Compression) Option {
	return func(b *Buffer) {
		b.compression = c
	}
}

// WithFileMode sets the permissions of written quad files.
func WithFileMode(mode os.FileMode) Option {
	return func(b *Buffer) {
		if mode != 0 {
			b.fileMode = mode.Perm()
		}
	}
}

// WithDirCacheSize bounds the number of segment directories remembered as existing.
func WithDirCacheSize(n int) Option {
	return func(b *Buffer) {
		b.dirCacheSize = n
	}
}

// WithSavedHook registers fn to run after every SaveAll.
func WithSavedHook(fn func()) Option {
	return func(b *Buffer) {
		b.onSaved = fn
	}
}

// New creates an empty buffer for the world described by env.
func New(env Environment, codec Codec, opts ...Option) *Buffer {
	b := &Buffer{
		env:              env,
		codec:            codec,
		chunks:           btree.NewG[resident](btreeDegree, residentLess),
		logger:           zap.NewNop(),
		progress:         nopProgress{},
		pump:             nopPump{},
		progressInterval: defaultProgressInterval,
		compression:      CompressionNone,
		fileMode:         defaultFileMode,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.metrics == nil {
		b.metrics = NewMetrics(nil)
	}
	b.dirs = newDirCache(b.dirCacheSize)
	return b
}

// Insert stores chunk at c. It returns false, leaving the buffer untouched,
// when a chunk is already resident at c. A nil chunk is also refused; that
// case is logged as an anomaly.
func (b *Buffer) Insert(c world.ChunkCoord, chunk Chunk) bool {
	if chunk == nil {
		b.metrics.Anomalies.WithLabelValues(anomalyNilChunk).Inc()
		b.logger.Warn("refusing to insert nil chunk", zap.Stringer("chunk", c))
		return false
	}
	if b.chunks.Has(resident{coord: c}) {
		return false
	}
	b.chunks.ReplaceOrInsert(resident{coord: c, chunk: chunk})
	b.metrics.Resident.Set(float64(b.chunks.Len()))
	return true
}

// Lookup returns the chunk at c, loading its quad from disk when it is not
// resident. The second result is false when the chunk has to be generated.
func (b *Buffer) Lookup(c world.ChunkCoord) (Chunk, bool) {
	if r, ok := b.chunks.Get(resident{coord: c}); ok {
		return r.chunk, true
	}
	if err := b.LoadQuadContaining(c); err != nil {
		return nil, false
	}
	r, ok := b.chunks.Get(resident{coord: c})
	if !ok {
		b.logger.Warn("quad file did not contain the expected chunk",
			zap.Stringer("chunk", c), zap.Stringer("quad", c.Quad()))
		return nil, false
	}
	return r.chunk, true
}

// Resident returns the chunk at c without touching the disk.
func (b *Buffer) Resident(c world.ChunkCoord) (Chunk, bool) {
	r, ok := b.chunks.Get(resident{coord: c})
	return r.chunk, ok
}

// Remove drops the chunk at c. Removing a chunk that is not resident is
// logged and otherwise ignored.
func (b *Buffer) Remove(c world.ChunkCoord) {
	r, ok := b.chunks.Delete(resident{coord: c})
	if !ok {
		b.metrics.Anomalies.WithLabelValues(anomalyMissingEntry).Inc()
		b.logger.Warn("tried to remove non-existing chunk", zap.Stringer("chunk", c))
		return
	}
	b.release(r)
	b.metrics.Resident.Set(float64(b.chunks.Len()))
}

// Clear drops every resident chunk.
func (b *Buffer) Clear() {
	b.chunks.Ascend(func(r resident) bool {
		b.release(r)
		return true
	})
	b.chunks.Clear(false)
	b.metrics.Resident.Set(0)
}

// Len returns the number of resident chunks.
func (b *Buffer) Len() int {
	return b.chunks.Len()
}

// Ascend calls fn for every resident chunk in coordinate order until fn returns false.
// fn must not insert or remove chunks.
func (b *Buffer) Ascend(fn func(c world.ChunkCoord, chunk Chunk) bool) {
	b.chunks.Ascend(func(r resident) bool {
		return fn(r.coord, r.chunk)
	})
}

func (b *Buffer) release(r resident) {
	closer, ok := r.chunk.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		b.logger.Warn("close chunk", zap.Stringer("chunk", r.coord), zap.Error(err))
	}
}
