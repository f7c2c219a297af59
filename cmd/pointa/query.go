package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oxhq/pointa/internal/model"
	"github.com/oxhq/pointa/internal/present"
	"github.com/oxhq/pointa/internal/solver/andersen"
	"github.com/oxhq/pointa/internal/solver/steensgaard"
	"github.com/oxhq/pointa/internal/store"
	"github.com/oxhq/pointa/internal/store/remote"
)

func newQueryCmd(flags *cliFlags) *cobra.Command {
	var (
		seedName string
		seedHash string
		solver   string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Slice and solve a points-to query from a seed symbol",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := resolveSeed(seedName, seedHash)
			if err != nil {
				return err
			}

			st, err := store.Open(flags.dbDSN, flags.debug)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			var slicer store.Slicer = st
			if flags.neo4j != "" {
				slicer = fallbackSlicer{remote: remote.New(flags.neo4j), local: st}
			}

			ctx := context.Background()
			constraints, err := slicer.Slice(ctx, seed)
			if err != nil {
				return fmt.Errorf("slice seed %d: %w", seed, err)
			}

			var graph present.Graph
			switch solver {
			case "andersen":
				pt := andersen.Run(constraints, nil)
				graph = present.FromAndersen(ctx, pt, seed, st.AstNode)
			case "steensgaard":
				res := steensgaard.Run(constraints)
				graph = present.FromSteensgaard(ctx, res, seed, st.AstNode)
			default:
				return fmt.Errorf("unknown solver %q: %w", solver, model.ErrUnknownSolver)
			}

			runID := uuid.NewString()
			if err := st.RecordRun(ctx, runID, solver, seed, len(constraints), len(graph.Nodes), nil); err != nil {
				return fmt.Errorf("record run: %w", err)
			}

			out, err := json.MarshalIndent(graph, "", "  ")
			if err != nil {
				return fmt.Errorf("encode graph: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&seedName, "seed", "", "seed symbol name, hashed the same way the extractor hashes mangled names")
	cmd.Flags().StringVar(&seedHash, "seed-hash", "", "seed as a raw decimal hash, bypassing name hashing")
	cmd.Flags().StringVar(&solver, "solver", "andersen", "solver to run: andersen or steensgaard")
	return cmd
}

// resolveSeed turns either a raw decimal hash or a symbol name into the
// uint64 seed the slicer and solvers key on, matching the extractor's own
// mangled-name hashing (model.HashString) so a CLI user can query by name.
func resolveSeed(name, hash string) (uint64, error) {
	if hash != "" {
		h, err := strconv.ParseUint(hash, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid --seed-hash %q: %w", hash, err)
		}
		return h, nil
	}
	if name != "" {
		return model.HashString(name), nil
	}
	return 0, model.ErrEmptySeed
}
