package tile

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"mapstore/internal/mapbuffer"
	"mapstore/internal/world"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// run is a stretch of identical terrain, stored as ["t_dirt", 144].
type run struct {
	Terrain Terrain
	Count   int
}

func (r run) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Terrain, r.Count})
}

func (r *run) UnmarshalJSON(b []byte) error {
	var parts []jsoniter.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return errors.Wrap(err, "terrain run")
	}
	if len(parts) != 2 {
		return errors.Errorf("terrain run: want 2 elements, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &r.Terrain); err != nil {
		return errors.Wrap(err, "terrain run name")
	}
	if err := json.Unmarshal(parts[1], &r.Count); err != nil {
		return errors.Wrap(err, "terrain run count")
	}
	if r.Terrain == "" || r.Count <= 0 {
		return errors.Errorf("terrain run: invalid run %s", string(b))
	}
	return nil
}

type encoding struct {
	Terrain     []run `json:"terrain"`
	LastTouched int64 `json:"turn_last_touched"`
}

func compressTerrain(cells []Terrain) []run {
	var runs []run
	for _, ter := range cells {
		if n := len(runs); n > 0 && runs[n-1].Terrain == ter {
			runs[n-1].Count++
			continue
		}
		runs = append(runs, run{Terrain: ter, Count: 1})
	}
	return runs
}

// Codec stores tiles in quad files.
type Codec struct{}

var _ mapbuffer.Codec = Codec{}

func (Codec) Encode(c mapbuffer.Chunk) ([]byte, error) {
	t, ok := c.(*Tile)
	if !ok {
		return nil, errors.Errorf("tile codec: unsupported chunk type %T", c)
	}
	return json.Marshal(encoding{
		Terrain:     compressTerrain(t.terrain[:]),
		LastTouched: t.LastTouched,
	})
}

func (Codec) Decode(data []byte, version int, coord world.ChunkCoord) (mapbuffer.Chunk, error) {
	if version > mapbuffer.FormatVersion {
		return nil, errors.Errorf("tile %v: unsupported format version %d", coord, version)
	}
	var enc encoding
	if err := json.Unmarshal(data, &enc); err != nil {
		return nil, errors.Wrapf(err, "decode tile %v", coord)
	}
	t := &Tile{Coord: coord, LastTouched: enc.LastTouched}
	idx := 0
	for _, r := range enc.Terrain {
		if idx+r.Count > len(t.terrain) {
			return nil, errors.Errorf("decode tile %v: terrain runs exceed %d cells", coord, len(t.terrain))
		}
		for i := 0; i < r.Count; i++ {
			t.terrain[idx] = r.Terrain
			idx++
		}
	}
	if idx != len(t.terrain) {
		return nil, errors.Errorf("decode tile %v: terrain runs cover %d of %d cells", coord, idx, len(t.terrain))
	}
	return t, nil
}
