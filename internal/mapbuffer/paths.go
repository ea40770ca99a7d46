package mapbuffer

import (
	"fmt"
	"path/filepath"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"mapstore/internal/world"
)

const (
	mapsDirName = "maps"
	quadFileExt = ".map"
)

// Old saves named quad files with locale-grouped numbers, e.g. "1,234.7.0.map".
var legacyPrinter = message.NewPrinter(language.English)

// MapsRoot returns the directory holding every segment directory of a world.
func MapsRoot(worldRoot string) string {
	return filepath.Join(worldRoot, mapsDirName)
}

// SegmentDir returns the directory holding the quad's file.
func SegmentDir(worldRoot string, q world.QuadCoord) string {
	seg := q.Segment()
	return filepath.Join(MapsRoot(worldRoot), fmt.Sprintf("%d.%d.%d", seg.X, seg.Y, seg.Z))
}

// QuadPath returns the canonical file path of a quad.
func QuadPath(worldRoot string, q world.QuadCoord) string {
	return filepath.Join(SegmentDir(worldRoot, q), fmt.Sprintf("%d.%d.%d%s", q.X, q.Y, q.Z, quadFileExt))
}

// LegacyQuadPath returns the path older saves used for a quad. It is only ever read.
func LegacyQuadPath(worldRoot string, q world.QuadCoord) string {
	name := legacyPrinter.Sprintf("%d.%d.%d", q.X, q.Y, q.Z) + quadFileExt
	return filepath.Join(SegmentDir(worldRoot, q), name)
}
