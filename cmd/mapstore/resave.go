package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mapstore/internal/mapbuffer"
	"mapstore/internal/world"
)

type resaveOptions struct {
	all bool
}

func newResaveCommand(a *app) *cobra.Command {
	opts := &resaveOptions{}
	cmd := &cobra.Command{
		Use:   "resave",
		Short: "Load every quad file and save the world again under canonical names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.resave(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.all, "all", true, "release every chunk after saving instead of keeping the active area")
	return cmd
}

func (a *app) resave(cmd *cobra.Command, opts *resaveOptions) error {
	if a.cfg.World.GenerationDisabled {
		return errors.New("resave needs generation enabled, quad files would not be written")
	}

	progress := newBarProgress(cmd.ErrOrStderr(), "saving quads")
	buf := a.newBuffer(
		mapbuffer.WithProgress(progress),
		mapbuffer.WithEventPump(mapbuffer.PumpFunc(runtime.Gosched)),
	)
	defer buf.Clear()

	quads, legacy, err := scanQuadFiles(a.cfg.World.Root)
	if err != nil {
		progress.Wait()
		return err
	}
	loads := make(map[world.QuadCoord]mapbuffer.QuadLoad, len(quads))
	for _, q := range quads {
		load, err := buf.LoadQuad(q)
		if err != nil {
			a.logger.Warn("quad not loaded", zap.Stringer("quad", q), zap.Error(err))
			continue
		}
		loads[q] = load
	}
	uniform := make(map[world.QuadCoord]bool, len(loads))
	for q := range loads {
		uniform[q] = residentUniform(buf, q)
	}

	stats, err := buf.SaveAll(a.activeArea(), opts.all)
	progress.Wait()
	if err != nil {
		return err
	}

	removed, kept := 0, 0
	for _, q := range quads {
		path, ok := legacy[q]
		if !ok {
			continue
		}
		if reason := a.legacyBlocker(q, path, loads, uniform); reason != "" {
			a.logger.Warn("keeping legacy quad file", zap.String("path", path), zap.String("reason", reason))
			kept++
			continue
		}
		if err := os.Remove(path); err != nil {
			a.logger.Warn("remove legacy quad file", zap.String("path", path), zap.Error(err))
			kept++
			continue
		}
		removed++
	}

	fmt.Fprintf(cmd.OutOrStdout(), "quads %d, written %d, skipped %d, failed %d, evicted %d, kept %d, legacy removed %d, legacy kept %d\n",
		stats.Quads, stats.Written, stats.Skipped, stats.Failed, stats.Evicted, buf.Len(), removed, kept)
	return nil
}

// legacyBlocker explains why the legacy file of q cannot be removed yet, or
// returns "" when its whole content now lives under the canonical name or was
// uniform and is regenerated on demand.
func (a *app) legacyBlocker(q world.QuadCoord, path string, loads map[world.QuadCoord]mapbuffer.QuadLoad, uniform map[world.QuadCoord]bool) string {
	load, ok := loads[q]
	switch {
	case !ok:
		return "file could not be read"
	case load.Path != path:
		return "shadowed by the canonical file"
	case load.Skipped > 0:
		return fmt.Sprintf("%d records were not loaded", load.Skipped)
	}
	if uniform[q] {
		return ""
	}
	if _, err := os.Stat(mapbuffer.QuadPath(a.cfg.World.Root, q)); err != nil {
		return "canonical file was not written"
	}
	return ""
}

func residentUniform(buf *mapbuffer.Buffer, q world.QuadCoord) bool {
	for _, m := range q.Members() {
		if c, ok := buf.Resident(m); ok && !c.IsUniform() {
			return false
		}
	}
	return true
}

// scanQuadFiles lists every quad with a file where the buffer would look for
// it, plus the legacy-named files among them.
func scanQuadFiles(worldRoot string) ([]world.QuadCoord, map[world.QuadCoord]string, error) {
	seen := make(map[world.QuadCoord]struct{})
	var quads []world.QuadCoord
	legacy := make(map[world.QuadCoord]string)
	err := filepath.WalkDir(mapbuffer.MapsRoot(worldRoot), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == mapbuffer.MapsRoot(worldRoot) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		q, ok := parseQuadFileName(path)
		if !ok {
			return nil
		}
		switch path {
		case mapbuffer.QuadPath(worldRoot, q):
		case mapbuffer.LegacyQuadPath(worldRoot, q):
			legacy[q] = path
		default:
			// Misplaced files are never read by the buffer.
			return nil
		}
		if _, dup := seen[q]; dup {
			return nil
		}
		seen[q] = struct{}{}
		quads = append(quads, q)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scan quad files: %w", err)
	}
	return quads, legacy, nil
}
