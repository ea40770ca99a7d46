package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mapstore/internal/mapbuffer"
	"mapstore/internal/tile"
)

func newInspectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect X Y Z",
		Short: "List the records of the quad file holding a chunk",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseChunkArgs(args)
			if err != nil {
				return err
			}
			q := c.Quad()
			root := a.cfg.World.Root
			path := mapbuffer.QuadPath(root, q)
			info, err := os.Stat(path)
			if os.IsNotExist(err) {
				path = mapbuffer.LegacyQuadPath(root, q)
				info, err = os.Stat(path)
			}
			if err != nil {
				return fmt.Errorf("quad %v has no file: %w", q, err)
			}

			records, err := mapbuffer.ReadQuadFile(path, func(err error) {
				a.logger.Warn("malformed record", zap.String("path", path), zap.Error(err))
			})
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s, %d records)\n", path, humanize.Bytes(uint64(info.Size())), len(records))
			for _, rec := range records {
				decoded, err := tile.Codec{}.Decode(rec.Content, rec.Version, rec.Coord)
				if err != nil {
					fmt.Fprintf(out, "  %v v%d %s: %v\n", rec.Coord, rec.Version, humanize.Bytes(uint64(len(rec.Content))), err)
					continue
				}
				fmt.Fprintf(out, "  %v v%d %s uniform=%t\n", rec.Coord, rec.Version, humanize.Bytes(uint64(len(rec.Content))), decoded.IsUniform())
			}
			return nil
		},
	}
}
