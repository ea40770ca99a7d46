package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"mapstore/internal/world"
)

func parseChunkArgs(args []string) (world.ChunkCoord, error) {
	if len(args) != 3 {
		return world.ChunkCoord{}, fmt.Errorf("want 3 coordinates, got %d", len(args))
	}
	var xyz [3]int
	for i, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return world.ChunkCoord{}, fmt.Errorf("coordinate %q: %w", arg, err)
		}
		xyz[i] = n
	}
	return world.ChunkCoord{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// parseQuadFileName recovers the quad of a file named "x.y.z.map", including
// legacy names with grouped thousands such as "1,234.7.0.map".
func parseQuadFileName(path string) (world.QuadCoord, bool) {
	name := strings.TrimSuffix(filepath.Base(path), ".map")
	if name == filepath.Base(path) {
		return world.QuadCoord{}, false
	}
	parts := strings.Split(strings.ReplaceAll(name, ",", ""), ".")
	if len(parts) != 3 {
		return world.QuadCoord{}, false
	}
	var xyz [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return world.QuadCoord{}, false
		}
		xyz[i] = n
	}
	return world.QuadCoord{X: xyz[0], Y: xyz[1], Z: xyz[2]}, true
}
