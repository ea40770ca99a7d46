package mapbuffer

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"mapstore/internal/world"
)

// FormatVersion is written into every record of a quad file.
const FormatVersion = 1

const defaultFileMode os.FileMode = 0o644

const (
	memberVersion     = "version"
	memberCoordinates = "coordinates"
)

// Compression selects the encoding of newly written quad files. Readers
// detect the encoding themselves, so files of both kinds can coexist.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is one chunk entry of a quad file.
type Record struct {
	Version int
	Coord   world.ChunkCoord
	// Content is a JSON object holding every member other than version and coordinates.
	Content []byte
}

// writeRecords writes records as a JSON array, splicing each record's content
// members in after its version and coordinates.
func writeRecords(w io.Writer, records []Record) error {
	stream := jsoniter.NewStream(json, w, 4096)
	stream.WriteArrayStart()
	for i, rec := range records {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectStart()
		stream.WriteObjectField(memberVersion)
		stream.WriteInt(rec.Version)
		stream.WriteMore()
		stream.WriteObjectField(memberCoordinates)
		stream.WriteArrayStart()
		stream.WriteInt(rec.Coord.X)
		stream.WriteMore()
		stream.WriteInt(rec.Coord.Y)
		stream.WriteMore()
		stream.WriteInt(rec.Coord.Z)
		stream.WriteArrayEnd()
		if err := spliceMembers(stream, rec.Content); err != nil {
			return errors.Wrapf(err, "record %v", rec.Coord)
		}
		stream.WriteObjectEnd()
	}
	stream.WriteArrayEnd()
	if err := stream.Flush(); err != nil {
		return errors.Wrap(err, "flush quad records")
	}
	return stream.Error
}

func spliceMembers(stream *jsoniter.Stream, content []byte) error {
	content = bytes.TrimSpace(content)
	if len(content) == 0 {
		return nil
	}
	var reserved string
	iter := jsoniter.ParseBytes(json, content)
	iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		if field == memberVersion || field == memberCoordinates {
			reserved = field
			return false
		}
		value := it.SkipAndReturnBytes()
		stream.WriteMore()
		stream.WriteObjectField(field)
		stream.WriteRaw(string(value))
		return true
	})
	if reserved != "" {
		return errors.Wrapf(ErrReservedMember, "member %q", reserved)
	}
	if iter.Error != nil && iter.Error != io.EOF {
		return errors.Wrap(iter.Error, "content is not a JSON object")
	}
	return nil
}

// readRecords streams the JSON array in r, calling fn with every raw record.
// Syntax errors stop the read; record-level problems are left to fn.
func readRecords(r io.Reader, fn func(raw []byte)) error {
	iter := jsoniter.Parse(json, r, 4096)
	for iter.ReadArray() {
		raw := iter.SkipAndReturnBytes()
		if iter.Error != nil {
			break
		}
		fn(raw)
	}
	if iter.Error == io.EOF {
		return errors.Wrap(io.ErrUnexpectedEOF, "parse quad records")
	}
	if iter.Error != nil {
		return errors.Wrap(iter.Error, "parse quad records")
	}
	return nil
}

// decodeRecord buffers every member of a raw record before building it, so
// member order in the file does not matter.
func decodeRecord(raw []byte) (Record, error) {
	var members map[string]jsoniter.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return Record{}, errors.Wrap(err, "record is not an object")
	}

	coords, ok := members[memberCoordinates]
	if !ok {
		return Record{}, ErrMissingCoordinates
	}
	var xyz []int
	if err := json.Unmarshal(coords, &xyz); err != nil || len(xyz) != 3 {
		return Record{}, errors.Wrapf(ErrMissingCoordinates, "malformed coordinates %s", string(coords))
	}

	rec := Record{Coord: world.ChunkCoord{X: xyz[0], Y: xyz[1], Z: xyz[2]}}
	if v, ok := members[memberVersion]; ok {
		if err := json.Unmarshal(v, &rec.Version); err != nil {
			return Record{}, errors.Wrapf(err, "malformed version %s", string(v))
		}
	}
	delete(members, memberCoordinates)
	delete(members, memberVersion)

	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	stream := jsoniter.NewStream(json, &buf, 512)
	stream.WriteObjectStart()
	for i, name := range names {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(name)
		stream.WriteRaw(string(members[name]))
	}
	stream.WriteObjectEnd()
	if err := stream.Flush(); err != nil {
		return Record{}, errors.Wrap(err, "rebuild content")
	}
	rec.Content = buf.Bytes()
	return rec, nil
}

// ReadQuadFile returns every well-formed record of the quad file at path.
// Malformed records are reported through skipped and otherwise ignored.
func ReadQuadFile(path string, skipped func(err error)) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open quad file")
	}
	defer f.Close()

	r, closeReader, err := newQuadReader(f)
	if err != nil {
		return nil, err
	}
	defer closeReader()

	var records []Record
	err = readRecords(r, func(raw []byte) {
		rec, err := decodeRecord(raw)
		if err != nil {
			if skipped != nil {
				skipped(err)
			}
			return
		}
		records = append(records, rec)
	})
	return records, err
}

func newQuadReader(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, nil, errors.Wrap(err, "read quad header")
	}
	if !bytes.Equal(head, zstdMagic) {
		return br, func() {}, nil
	}
	dec, err := zstd.NewReader(br)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open zstd stream")
	}
	return dec, dec.Close, nil
}

// writeQuadFile replaces the file at path with records, leaving it with the given permissions.
func writeQuadFile(path string, records []Record, compression Compression, mode os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+strings.TrimSuffix(filepath.Base(path), quadFileExt)+"-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp quad file")
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	var w io.Writer = tmp
	var enc *zstd.Encoder
	if compression == CompressionZstd {
		enc, err = zstd.NewWriter(tmp)
		if err != nil {
			return errors.Wrap(err, "open zstd stream")
		}
		w = enc
	}
	if err = writeRecords(w, records); err != nil {
		if enc != nil {
			enc.Close()
		}
		return err
	}
	if enc != nil {
		if err = enc.Close(); err != nil {
			return errors.Wrap(err, "close zstd stream")
		}
	}
	if err = tmp.Chmod(mode); err != nil {
		return errors.Wrap(err, "chmod quad file")
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrap(err, "sync quad file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "close quad file")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "replace quad file")
	}
	return nil
}
