package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mapstore/internal/mapbuffer"
)

func newLocateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "locate X Y Z",
		Short: "Print the quad, segment and file paths holding a chunk",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseChunkArgs(args)
			if err != nil {
				return err
			}
			q := c.Quad()
			root := a.cfg.World.Root
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "chunk    %v\n", c)
			fmt.Fprintf(out, "quad     %v\n", q)
			fmt.Fprintf(out, "segment  %v\n", q.Segment())
			fmt.Fprintf(out, "members  %v\n", q.Members())
			canonical := mapbuffer.QuadPath(root, q)
			fmt.Fprintf(out, "path     %s%s\n", canonical, existsSuffix(canonical))
			if legacy := mapbuffer.LegacyQuadPath(root, q); legacy != canonical {
				fmt.Fprintf(out, "legacy   %s%s\n", legacy, existsSuffix(legacy))
			}
			return nil
		},
	}
}

func existsSuffix(path string) string {
	if _, err := os.Stat(path); err == nil {
		return " (exists)"
	}
	return ""
}
