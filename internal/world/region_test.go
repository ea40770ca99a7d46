package world

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestChunkQuadFloorsNegativeCoordinates(t *testing.T) {
	tests := []struct {
		chunk ChunkCoord
		want  QuadCoord
	}{
		{chunk: ChunkCoord{X: 0, Y: 0, Z: 0}, want: QuadCoord{X: 0, Y: 0, Z: 0}},
		{chunk: ChunkCoord{X: 1, Y: 1, Z: 0}, want: QuadCoord{X: 0, Y: 0, Z: 0}},
		{chunk: ChunkCoord{X: 2, Y: 3, Z: -1}, want: QuadCoord{X: 1, Y: 1, Z: -1}},
		{chunk: ChunkCoord{X: -1, Y: -2, Z: 4}, want: QuadCoord{X: -1, Y: -1, Z: 4}},
		{chunk: ChunkCoord{X: -3, Y: 0, Z: 0}, want: QuadCoord{X: -2, Y: 0, Z: 0}},
	}
	for _, tt := range tests {
		if got := tt.chunk.Quad(); got != tt.want {
			t.Fatalf("Quad(%v): got %v want %v", tt.chunk, got, tt.want)
		}
	}
}

func TestQuadSegment(t *testing.T) {
	tests := []struct {
		quad QuadCoord
		want SegmentCoord
	}{
		{quad: QuadCoord{X: 0, Y: 31, Z: 0}, want: SegmentCoord{X: 0, Y: 0, Z: 0}},
		{quad: QuadCoord{X: 32, Y: 64, Z: 2}, want: SegmentCoord{X: 1, Y: 2, Z: 2}},
		{quad: QuadCoord{X: -1, Y: -33, Z: 0}, want: SegmentCoord{X: -1, Y: -2, Z: 0}},
	}
	for _, tt := range tests {
		if got := tt.quad.Segment(); got != tt.want {
			t.Fatalf("Segment(%v): got %v want %v", tt.quad, got, tt.want)
		}
	}
}

func TestQuadMembersMapBackToQuad(t *testing.T) {
	quad := QuadCoord{X: -3, Y: 5, Z: 1}
	members := quad.Members()
	want := [4]ChunkCoord{
		{X: -6, Y: 10, Z: 1},
		{X: -6, Y: 11, Z: 1},
		{X: -5, Y: 10, Z: 1},
		{X: -5, Y: 11, Z: 1},
	}
	if diff := cmp.Diff(want, members); diff != "" {
		t.Fatalf("members mismatch (-want +got):\n%s", diff)
	}
	for _, m := range members {
		if got := m.Quad(); got != quad {
			t.Fatalf("member %v maps to %v, want %v", m, got, quad)
		}
	}
}

func TestChunkCoordLessIsLexicographic(t *testing.T) {
	coords := []ChunkCoord{
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: -1},
		{X: 0, Y: 1, Z: -2},
		{X: -1, Y: 9, Z: 9},
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].Less(coords[j]) })
	want := []ChunkCoord{
		{X: -1, Y: 9, Z: 9},
		{X: 0, Y: 1, Z: -2},
		{X: 0, Y: 1, Z: -1},
		{X: 1, Y: 0, Z: 0},
	}
	if diff := cmp.Diff(want, coords); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct{ value, size, want int }{
		{0, 2, 0},
		{-1, 2, -1},
		{-2, 2, -1},
		{-3, 2, -2},
		{63, 32, 1},
		{-64, 32, -2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := floorDiv(tt.value, tt.size); got != tt.want {
			t.Fatalf("floorDiv(%d, %d): got %d want %d", tt.value, tt.size, got, tt.want)
		}
	}
}
