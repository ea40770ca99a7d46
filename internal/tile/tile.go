package tile

import (
	"mapstore/internal/world"
)

// Size is the edge length of a tile in cells.
const Size = 12

// Terrain names the ground type of a cell.
type Terrain string

const (
	TerrainOpenAir Terrain = "t_open_air"
	TerrainDirt    Terrain = "t_dirt"
	TerrainGrass   Terrain = "t_grass"
	TerrainRock    Terrain = "t_rock"
	TerrainWater   Terrain = "t_water_sh"
	TerrainFloor   Terrain = "t_floor"
	TerrainWall    Terrain = "t_wall"
)

// Tile is one chunk of map content: a square grid of terrain plus the cells
// that have been marked as changed by the player.
type Tile struct {
	Coord   world.ChunkCoord
	terrain [Size * Size]Terrain
	// LastTouched is the game turn the tile was last modified on.
	LastTouched int64
}

// New returns a tile filled with a single terrain.
func New(coord world.ChunkCoord, fill Terrain) *Tile {
	t := &Tile{Coord: coord}
	for i := range t.terrain {
		t.terrain[i] = fill
	}
	return t
}

func cellIndex(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= Size || y >= Size {
		return 0, false
	}
	return y*Size + x, true
}

// Terrain returns the terrain at local cell (x, y).
func (t *Tile) Terrain(x, y int) (Terrain, bool) {
	idx, ok := cellIndex(x, y)
	if !ok {
		return "", false
	}
	return t.terrain[idx], true
}

// SetTerrain changes the terrain at local cell (x, y).
func (t *Tile) SetTerrain(x, y int, ter Terrain) bool {
	idx, ok := cellIndex(x, y)
	if !ok || ter == "" {
		return false
	}
	t.terrain[idx] = ter
	return true
}

// IsUniform reports whether every cell holds the same terrain.
func (t *Tile) IsUniform() bool {
	for _, ter := range t.terrain[1:] {
		if ter != t.terrain[0] {
			return false
		}
	}
	return true
}

// Equal reports whether two tiles hold the same content.
func (t *Tile) Equal(other *Tile) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Coord == other.Coord && t.terrain == other.terrain && t.LastTouched == other.LastTouched
}
