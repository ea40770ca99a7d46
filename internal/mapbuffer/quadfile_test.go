package mapbuffer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mapstore/internal/world"
)

func TestWriteRecordsSplicesContentMembers(t *testing.T) {
	var buf bytes.Buffer
	records := []Record{
		{Version: 3, Coord: chunkAt(0, 1, -2), Content: []byte(`{"terrain":[["t_dirt",144]],"turn":5}`)},
		{Version: 3, Coord: chunkAt(1, 1, -2), Content: []byte(`{}`)},
	}
	if err := writeRecords(&buf, records); err != nil {
		t.Fatalf("writeRecords: %v", err)
	}
	want := `[{"version":3,"coordinates":[0,1,-2],"terrain":[["t_dirt",144]],"turn":5},{"version":3,"coordinates":[1,1,-2]}]`
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output:\nwant %s\n got %s", want, got)
	}
}

func TestWriteRecordsRejectsReservedMembers(t *testing.T) {
	var buf bytes.Buffer
	records := []Record{{Coord: chunkAt(0, 0, 0), Content: []byte(`{"coordinates":[9,9,9]}`)}}
	err := writeRecords(&buf, records)
	if !errors.Is(err, ErrReservedMember) {
		t.Fatalf("expected ErrReservedMember, got %v", err)
	}
}

func TestWriteRecordsRejectsNonObjectContent(t *testing.T) {
	var buf bytes.Buffer
	records := []Record{{Coord: chunkAt(0, 0, 0), Content: []byte(`[1,2]`)}}
	if err := writeRecords(&buf, records); err == nil {
		t.Fatalf("expected non-object content to fail")
	}
}

func TestDecodeRecordIgnoresMemberOrder(t *testing.T) {
	raw := []byte(`{"turn":5,"terrain":"x","coordinates":[4,5,6],"version":2}`)
	rec, err := decodeRecord(raw)
	if err != nil {
		t.Fatalf("decodeRecord: %v", err)
	}
	want := Record{Version: 2, Coord: chunkAt(4, 5, 6), Content: []byte(`{"terrain":"x","turn":5}`)}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRecordStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "missing coordinates", raw: `{"version":1,"value":"a"}`},
		{name: "short coordinates", raw: `{"version":1,"coordinates":[1,2]}`},
		{name: "non numeric coordinates", raw: `{"coordinates":["a","b","c"]}`},
		{name: "null record", raw: `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeRecord([]byte(tt.raw))
			if !errors.Is(err, ErrMissingCoordinates) {
				t.Fatalf("expected ErrMissingCoordinates, got %v", err)
			}
		})
	}
	if _, err := decodeRecord([]byte(`42`)); err == nil {
		t.Fatalf("expected scalar record to fail")
	}
}

func TestReadRecordsContinuesPastMalformedRecord(t *testing.T) {
	input := `[{"version":1,"coordinates":[0,0,0]}, {"version":1}, 7, {"coordinates":[0,1,0],"version":1}]`
	var got []world.ChunkCoord
	var skipped int
	err := readRecords(strings.NewReader(input), func(raw []byte) {
		rec, err := decodeRecord(raw)
		if err != nil {
			skipped++
			return
		}
		got = append(got, rec.Coord)
	})
	if err != nil {
		t.Fatalf("readRecords: %v", err)
	}
	if skipped != 2 {
		t.Fatalf("expected 2 skipped records, got %d", skipped)
	}
	want := []world.ChunkCoord{chunkAt(0, 0, 0), chunkAt(0, 1, 0)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReadRecordsReportsSyntaxErrors(t *testing.T) {
	var seen int
	err := readRecords(strings.NewReader(`[{"coordinates":[0,0,0]}, {"coord`), func([]byte) { seen++ })
	if err == nil {
		t.Fatalf("expected truncated file to fail")
	}
	if seen != 1 {
		t.Fatalf("expected the complete record to be delivered, got %d", seen)
	}
}

func TestQuadFileRoundTrip(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionZstd} {
		t.Run(string(compression), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "0.0.0.map")
			records := []Record{
				{Version: FormatVersion, Coord: chunkAt(0, 0, 0), Content: []byte(`{"value":"a"}`)},
				{Version: FormatVersion, Coord: chunkAt(1, 1, 0), Content: []byte(`{"value":"b"}`)},
			}
			if err := writeQuadFile(path, records, compression, defaultFileMode); err != nil {
				t.Fatalf("writeQuadFile: %v", err)
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read quad file: %v", err)
			}
			if compressed := bytes.HasPrefix(raw, zstdMagic); compressed != (compression == CompressionZstd) {
				t.Fatalf("unexpected encoding for %s: compressed=%v", compression, compressed)
			}

			got, err := ReadQuadFile(path, func(err error) { t.Fatalf("unexpected skip: %v", err) })
			if err != nil {
				t.Fatalf("ReadQuadFile: %v", err)
			}
			if diff := cmp.Diff(records, got); diff != "" {
				t.Fatalf("records mismatch (-want +got):\n%s", diff)
			}

			entries, err := os.ReadDir(filepath.Dir(path))
			if err != nil {
				t.Fatalf("read dir: %v", err)
			}
			if len(entries) != 1 {
				t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
			}
		})
	}
}

func TestReadQuadFileEmptyFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.map")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := ReadQuadFile(path, nil); err == nil {
		t.Fatalf("expected empty file to fail")
	}
}
