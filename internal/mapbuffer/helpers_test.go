package mapbuffer

import (
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"mapstore/internal/world"
)

type fakeChunk struct {
	Value   string `json:"value"`
	Uniform bool   `json:"uniform"`
	closed  bool
}

func (c *fakeChunk) IsUniform() bool { return c.Uniform }

func (c *fakeChunk) Close() error {
	c.closed = true
	return nil
}

type fakeCodec struct {
	failEncode bool
}

func (f fakeCodec) Encode(c Chunk) ([]byte, error) {
	if f.failEncode {
		return nil, errors.New("encode refused")
	}
	return json.Marshal(c.(*fakeChunk))
}

func (fakeCodec) Decode(data []byte, version int, coord world.ChunkCoord) (Chunk, error) {
	if version != FormatVersion {
		return nil, errors.Errorf("unexpected version %d", version)
	}
	var c fakeChunk
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

type testBuffer struct {
	*Buffer
	root    string
	logs    *observer.ObservedLogs
	metrics *Metrics
}

func newTestBuffer(t *testing.T, opts ...Option) *testBuffer {
	t.Helper()
	root := t.TempDir()
	core, logs := observer.New(zap.DebugLevel)
	metrics := NewMetrics(nil)
	opts = append([]Option{WithLogger(zap.New(core)), WithMetrics(metrics)}, opts...)
	return &testBuffer{
		Buffer:  New(StaticEnvironment{Root: root}, fakeCodec{}, opts...),
		root:    root,
		logs:    logs,
		metrics: metrics,
	}
}

func chunkAt(x, y, z int) world.ChunkCoord {
	return world.ChunkCoord{X: x, Y: y, Z: z}
}

func mustInsert(t *testing.T, b *testBuffer, c world.ChunkCoord, chunk *fakeChunk) {
	t.Helper()
	if !b.Insert(c, chunk) {
		t.Fatalf("insert %v: already resident", c)
	}
}
