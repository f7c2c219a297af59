package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oxhq/pointa/internal/astsource/treesitter"
	"github.com/oxhq/pointa/internal/store"
	"github.com/oxhq/pointa/internal/walker"
)

func newExtractCmd(flags *cliFlags) *cobra.Command {
	var globs string

	cmd := &cobra.Command{
		Use:   "extract <root>",
		Short: "Walk a source tree and extract assignment constraints into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]

			st, err := store.Open(flags.dbDSN, flags.debug)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			w := walker.New()
			if flags.workers > 0 {
				w.Workers = flags.workers
			}
			if globs != "" {
				w.Patterns = strings.Split(globs, ",")
			}

			runID := uuid.NewString()
			stats, diags, err := w.Run(context.Background(), root, runID, treesitter.New(), st)
			if err != nil {
				return fmt.Errorf("extract %s: %w", root, err)
			}

			fmt.Printf("run %s: %d files, %d constraints stored (%s)\n",
				runID, stats.FilesProcessed, stats.ConstraintsStored, diags.Status())
			for _, d := range diags.Diagnostics {
				fmt.Printf("  [%s] %s:%d:%d %s\n", d.Severity, d.File, d.Line, d.Column, d.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&globs, "glob", "", "comma-separated glob patterns overriding the default C/C++ extensions")
	return cmd
}
