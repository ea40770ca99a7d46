package world

import "fmt"

const (
	// QuadSize is the number of chunks along x and y grouped into one quad.
	QuadSize = 2
	// SegmentSize is the number of quads along x and y bucketed into one segment directory.
	SegmentSize = 32
)

// quadOffsets lists the member offsets of a quad relative to its origin chunk,
// in the order members are written to disk.
var quadOffsets = [QuadSize * QuadSize]struct{ X, Y int }{
	{X: 0, Y: 0},
	{X: 0, Y: 1},
	{X: 1, Y: 0},
	{X: 1, Y: 1},
}

// ChunkCoord identifies a chunk in global chunk space.
type ChunkCoord struct {
	X int
	Y int
	Z int
}

// QuadCoord identifies the 2x2 group of chunks persisted together in one file.
type QuadCoord struct {
	X int
	Y int
	Z int
}

// SegmentCoord identifies the directory a quad file lives in.
type SegmentCoord struct {
	X int
	Y int
	Z int
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("%d,%d,%d", c.X, c.Y, c.Z)
}

func (q QuadCoord) String() string {
	return fmt.Sprintf("%d,%d,%d", q.X, q.Y, q.Z)
}

func (s SegmentCoord) String() string {
	return fmt.Sprintf("%d,%d,%d", s.X, s.Y, s.Z)
}

// Less orders chunk coordinates lexicographically by x, then y, then z.
func (c ChunkCoord) Less(other ChunkCoord) bool {
	if c.X != other.X {
		return c.X < other.X
	}
	if c.Y != other.Y {
		return c.Y < other.Y
	}
	return c.Z < other.Z
}

// Quad returns the quad containing the chunk.
func (c ChunkCoord) Quad() QuadCoord {
	return QuadCoord{
		X: floorDiv(c.X, QuadSize),
		Y: floorDiv(c.Y, QuadSize),
		Z: c.Z,
	}
}

// Segment returns the segment directory containing the quad.
func (q QuadCoord) Segment() SegmentCoord {
	return SegmentCoord{
		X: floorDiv(q.X, SegmentSize),
		Y: floorDiv(q.Y, SegmentSize),
		Z: q.Z,
	}
}

// Origin returns the member chunk with the smallest x and y.
func (q QuadCoord) Origin() ChunkCoord {
	return ChunkCoord{X: q.X * QuadSize, Y: q.Y * QuadSize, Z: q.Z}
}

// Members returns every chunk coordinate belonging to the quad in on-disk order.
func (q QuadCoord) Members() [QuadSize * QuadSize]ChunkCoord {
	origin := q.Origin()
	var members [QuadSize * QuadSize]ChunkCoord
	for i, off := range quadOffsets {
		members[i] = ChunkCoord{X: origin.X + off.X, Y: origin.Y + off.Y, Z: origin.Z}
	}
	return members
}

func floorDiv(value, size int) int {
	if size <= 0 {
		return 0
	}
	if value >= 0 {
		return value / size
	}
	return -((-value - 1) / size) - 1
}
