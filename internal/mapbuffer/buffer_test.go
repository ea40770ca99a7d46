package mapbuffer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mapstore/internal/world"
)

func TestInsertRejectsDuplicate(t *testing.T) {
	b := newTestBuffer(t)
	first := &fakeChunk{Value: "first"}
	second := &fakeChunk{Value: "second"}

	if !b.Insert(chunkAt(0, 0, 0), first) {
		t.Fatalf("expected first insert to succeed")
	}
	if b.Insert(chunkAt(0, 0, 0), second) {
		t.Fatalf("expected duplicate insert to fail")
	}
	got, ok := b.Resident(chunkAt(0, 0, 0))
	if !ok {
		t.Fatalf("expected chunk to stay resident")
	}
	if got != first {
		t.Fatalf("duplicate insert replaced the resident chunk")
	}
	if b.Len() != 1 {
		t.Fatalf("expected one resident chunk, got %d", b.Len())
	}
}

func TestInsertRejectsNilChunk(t *testing.T) {
	b := newTestBuffer(t)
	if b.Insert(chunkAt(1, 1, 1), nil) {
		t.Fatalf("expected nil chunk to be rejected")
	}
	if b.Len() != 0 {
		t.Fatalf("expected empty buffer, got %d", b.Len())
	}
	if n := b.logs.FilterMessage("refusing to insert nil chunk").Len(); n != 1 {
		t.Fatalf("expected nil insert to be logged once, got %d", n)
	}
	if got := testutil.ToFloat64(b.metrics.Anomalies.WithLabelValues(anomalyNilChunk)); got != 1 {
		t.Fatalf("nil chunk anomalies: got %v want 1", got)
	}
	if got := testutil.ToFloat64(b.metrics.Anomalies.WithLabelValues(anomalyDuplicate)); got != 0 {
		t.Fatalf("nil insert must not count as duplicate, got %v", got)
	}
}

func TestRemoveClosesChunk(t *testing.T) {
	b := newTestBuffer(t)
	chunk := &fakeChunk{}
	mustInsert(t, b, chunkAt(3, 4, 0), chunk)

	b.Remove(chunkAt(3, 4, 0))

	if !chunk.closed {
		t.Fatalf("expected removed chunk to be closed")
	}
	if _, ok := b.Resident(chunkAt(3, 4, 0)); ok {
		t.Fatalf("expected chunk to be gone")
	}
	if got := testutil.ToFloat64(b.metrics.Resident); got != 0 {
		t.Fatalf("resident gauge: got %v want 0", got)
	}
}

func TestRemoveMissingChunkIsLogged(t *testing.T) {
	b := newTestBuffer(t)
	mustInsert(t, b, chunkAt(0, 0, 0), &fakeChunk{})

	b.Remove(chunkAt(9, 9, 9))

	if b.Len() != 1 {
		t.Fatalf("expected buffer to be untouched, got %d chunks", b.Len())
	}
	if n := b.logs.FilterMessage("tried to remove non-existing chunk").Len(); n != 1 {
		t.Fatalf("expected one anomaly log, got %d", n)
	}
	if got := testutil.ToFloat64(b.metrics.Anomalies.WithLabelValues(anomalyMissingEntry)); got != 1 {
		t.Fatalf("missing entry anomalies: got %v want 1", got)
	}
}

func TestClearReleasesEveryChunk(t *testing.T) {
	b := newTestBuffer(t)
	chunks := []*fakeChunk{{}, {}, {}}
	for i, c := range chunks {
		mustInsert(t, b, chunkAt(i, 0, 0), c)
	}

	b.Clear()

	if b.Len() != 0 {
		t.Fatalf("expected empty buffer, got %d", b.Len())
	}
	for i, c := range chunks {
		if !c.closed {
			t.Fatalf("chunk %d was not closed", i)
		}
	}
}

func TestAscendVisitsInCoordinateOrder(t *testing.T) {
	b := newTestBuffer(t)
	for _, c := range []world.ChunkCoord{chunkAt(1, 0, 0), chunkAt(0, 5, 0), chunkAt(0, 1, 2), chunkAt(0, 1, -1)} {
		mustInsert(t, b, c, &fakeChunk{})
	}

	var got []world.ChunkCoord
	b.Ascend(func(c world.ChunkCoord, _ Chunk) bool {
		got = append(got, c)
		return true
	})

	want := []world.ChunkCoord{chunkAt(0, 1, -1), chunkAt(0, 1, 2), chunkAt(0, 5, 0), chunkAt(1, 0, 0)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ascend order mismatch (-want +got):\n%s", diff)
	}
}

func TestLookupMissWithoutFile(t *testing.T) {
	b := newTestBuffer(t)

	if _, ok := b.Lookup(chunkAt(10, 10, 0)); ok {
		t.Fatalf("expected lookup to miss")
	}
	if b.Len() != 0 {
		t.Fatalf("miss must not create chunks, got %d", b.Len())
	}
	err := b.LoadQuadContaining(chunkAt(10, 10, 0))
	if !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestLookupReturnsResidentChunk(t *testing.T) {
	b := newTestBuffer(t)
	chunk := &fakeChunk{Value: "here"}
	mustInsert(t, b, chunkAt(-1, -1, 0), chunk)

	got, ok := b.Lookup(chunkAt(-1, -1, 0))
	if !ok || got != chunk {
		t.Fatalf("expected resident chunk, got %v %v", got, ok)
	}
}
