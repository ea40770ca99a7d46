package mapbuffer

import "mapstore/internal/world"

// Chunk is resident map content. The buffer only ever asks whether the chunk
// is uniform; everything else about it belongs to the Codec.
//
// A chunk that also implements io.Closer is closed when it leaves the buffer.
type Chunk interface {
	IsUniform() bool
}

// Codec serialises chunk content. Encode must produce a JSON object; its
// members are stored alongside the record's version and coordinates.
type Codec interface {
	Encode(c Chunk) ([]byte, error)
	Decode(data []byte, version int, coord world.ChunkCoord) (Chunk, error)
}

// Environment describes the hosting game.
type Environment interface {
	WorldRoot() string
	// GenerationDisabled suppresses every quad file write.
	GenerationDisabled() bool
}

// StaticEnvironment is an Environment with fixed values.
type StaticEnvironment struct {
	Root              string
	DisableGeneration bool
}

func (e StaticEnvironment) WorldRoot() string        { return e.Root }
func (e StaticEnvironment) GenerationDisabled() bool { return e.DisableGeneration }

// ProgressSink receives save progress in quads.
type ProgressSink interface {
	Report(done, total int)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(done, total int)

func (f ProgressFunc) Report(done, total int) { f(done, total) }

// EventPump lets the host process pending events while a long save runs.
// The pump must not call back into the buffer.
type EventPump interface {
	PumpPending()
}

// PumpFunc adapts a function to EventPump.
type PumpFunc func()

func (f PumpFunc) PumpPending() { f() }

type nopProgress struct{}

func (nopProgress) Report(int, int) {}

type nopPump struct{}

func (nopPump) PumpPending() {}
