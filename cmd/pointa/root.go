package main

import (
	"github.com/spf13/cobra"

	"github.com/oxhq/pointa/internal/config"
)

// cliFlags mirrors internal/config.Config but lets cobra override any
// field from the command line; flags layer over the env-loaded config.
type cliFlags struct {
	dbDSN   string
	neo4j   string
	workers int
	debug   bool
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	flags := &cliFlags{
		dbDSN:   cfg.DatabaseDSN,
		neo4j:   cfg.Neo4jConnStr,
		workers: cfg.Workers,
		debug:   cfg.Debug,
	}

	root := &cobra.Command{
		Use:   "pointa",
		Short: "Flow-insensitive pointer analysis for C/C++",
		Long:  "Extract assignment constraints from C/C++ sources, solve them with Andersen or Steensgaard, and slice a points-to graph from a seed symbol.",
	}

	root.PersistentFlags().StringVar(&flags.dbDSN, "db", flags.dbDSN, "constraint store DSN (sqlite file path or libsql:// URL)")
	root.PersistentFlags().StringVar(&flags.neo4j, "neo4j", flags.neo4j, "optional remote graph-DB connection string for the slicer back-end")
	root.PersistentFlags().IntVar(&flags.workers, "workers", flags.workers, "extraction worker pool size (0 = auto)")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", flags.debug, "enable verbose store logging")

	root.AddCommand(newExtractCmd(flags), newQueryCmd(flags), newServeStubCmd(flags))
	return root
}
