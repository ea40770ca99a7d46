package mapbuffer

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mapstore/internal/world"
)

// SaveStats summarises one SaveAll pass.
type SaveStats struct {
	Quads   int
	Written int
	Skipped int
	Failed  int
	Evicted int
}

// SaveQuad writes the resident members of q to the quad's file. A quad whose
// resident members are all uniform is not written at all. When deleteAfter is
// set, the returned coordinates are the members that may now leave memory;
// the buffer itself is not modified.
func (b *Buffer) SaveQuad(q world.QuadCoord, deleteAfter bool) ([]world.ChunkCoord, error) {
	deletions, _, err := b.saveQuad(q, deleteAfter)
	return deletions, err
}

func (b *Buffer) saveQuad(q world.QuadCoord, deleteAfter bool) ([]world.ChunkCoord, string, error) {
	var present []resident
	allUniform := true
	for _, m := range q.Members() {
		r, ok := b.chunks.Get(resident{coord: m})
		if !ok {
			continue
		}
		present = append(present, r)
		if !r.chunk.IsUniform() {
			allUniform = false
		}
	}

	if allUniform {
		// Regenerating these is cheaper than reading them back.
		if !deleteAfter {
			return nil, saveOutcomeSkipped, nil
		}
		deletions := make([]world.ChunkCoord, 0, len(present))
		for _, r := range present {
			deletions = append(deletions, r.coord)
		}
		return deletions, saveOutcomeSkipped, nil
	}

	if b.env.GenerationDisabled() {
		return nil, saveOutcomeDisabled, nil
	}

	records := make([]Record, 0, len(present))
	for _, r := range present {
		content, err := b.codec.Encode(r.chunk)
		if err != nil {
			return nil, saveOutcomeFailed, errors.Wrapf(err, "encode chunk %v", r.coord)
		}
		records = append(records, Record{Version: FormatVersion, Coord: r.coord, Content: content})
	}

	root := b.env.WorldRoot()
	dir := SegmentDir(root, q)
	if err := b.dirs.ensure(dir); err != nil {
		return nil, saveOutcomeFailed, err
	}
	path := QuadPath(root, q)
	err := writeQuadFile(path, records, b.compression, b.fileMode)
	if err != nil && os.IsNotExist(errors.Cause(err)) {
		// Removed since it was cached.
		b.dirs.forget(dir)
		if err = b.dirs.ensure(dir); err == nil {
			err = writeQuadFile(path, records, b.compression, b.fileMode)
		}
	}
	if err != nil {
		b.dirs.forget(dir)
		return nil, saveOutcomeFailed, errors.Wrapf(err, "write quad %v", q)
	}

	if !deleteAfter {
		return nil, saveOutcomeWritten, nil
	}
	deletions := make([]world.ChunkCoord, 0, len(records))
	for _, rec := range records {
		deletions = append(deletions, rec.Coord)
	}
	return deletions, saveOutcomeWritten, nil
}

// SaveAll saves every quad holding a resident chunk exactly once, then drops
// the chunks that retention (or forceDelete) released. Failed quads are
// logged and keep their chunks resident. The only error returned is a
// failure to create the save root, in which case nothing was saved.
//
// Progress is reported, and the event pump run, at most once per progress
// interval. The pump must not re-enter the buffer.
func (b *Buffer) SaveAll(retention world.RetentionPolicy, forceDelete bool) (SaveStats, error) {
	var stats SaveStats
	root := MapsRoot(b.env.WorldRoot())
	if err := os.MkdirAll(root, 0o755); err != nil {
		b.logger.Error("failed to create save root", zap.String("path", root), zap.Error(err))
		return stats, errors.Wrapf(err, "create save root %s", root)
	}

	quads := b.residentQuads()
	stats.Quads = len(quads)

	progress := rate.Sometimes{Interval: b.progressInterval}
	var deferred []world.ChunkCoord
	for i, q := range quads {
		progress.Do(func() {
			b.progress.Report(i, len(quads))
			b.pump.PumpPending()
		})

		deleteAfter := forceDelete || (retention != nil && retention.ShouldEvict(q))
		deletions, outcome, err := b.saveQuad(q, deleteAfter)
		b.metrics.QuadSaves.WithLabelValues(outcome).Inc()
		switch outcome {
		case saveOutcomeWritten:
			stats.Written++
		case saveOutcomeFailed:
			stats.Failed++
			b.logger.Error("failed to save quad", zap.Stringer("quad", q), zap.Error(err))
		default:
			stats.Skipped++
		}
		deferred = append(deferred, deletions...)
	}
	b.progress.Report(len(quads), len(quads))

	for _, c := range deferred {
		b.Remove(c)
	}
	stats.Evicted = len(deferred)
	b.metrics.Evictions.Add(float64(len(deferred)))

	if b.onSaved != nil {
		b.onSaved()
	}
	b.logger.Info("map saved",
		zap.Int("quads", stats.Quads),
		zap.Int("written", stats.Written),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Int("evicted", stats.Evicted),
		zap.Int("resident", b.chunks.Len()))
	return stats, nil
}

// residentQuads lists the quads of all resident chunks, each once, in chunk order.
func (b *Buffer) residentQuads() []world.QuadCoord {
	visited := make(map[world.QuadCoord]struct{})
	var quads []world.QuadCoord
	b.chunks.Ascend(func(r resident) bool {
		q := r.coord.Quad()
		if _, ok := visited[q]; ok {
			return true
		}
		visited[q] = struct{}{}
		quads = append(quads, q)
		return true
	})
	return quads
}
