package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oxhq/pointa/internal/model"
	"github.com/oxhq/pointa/internal/present"
	"github.com/oxhq/pointa/internal/solver/andersen"
	"github.com/oxhq/pointa/internal/solver/steensgaard"
	"github.com/oxhq/pointa/internal/store"
	"github.com/oxhq/pointa/internal/store/remote"
)

// serveStub is a minimal HTTP front end over the query path. It is a stub
// because the graph it serves (internal/present.Graph) is pure data for
// an external diagram renderer; this command exists only so that renderer
// has something to poll against.
type serveStub struct {
	store  *store.Store
	slicer store.Slicer
}

func newServeStubCmd(flags *cliFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve-stub",
		Short: "Serve points-to queries over HTTP for an external renderer",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(flags.dbDSN, flags.debug)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			s := &serveStub{store: st, slicer: st}
			if flags.neo4j != "" {
				s.slicer = fallbackSlicer{remote: remote.New(flags.neo4j), local: st}
			}

			mux := http.NewServeMux()
			mux.HandleFunc("/query", s.handleQuery)
			mux.HandleFunc("/health", s.handleHealth)

			server := &http.Server{Addr: addr, Handler: mux}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				fmt.Printf("pointa serve-stub listening on %s\n", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case <-stop:
			case err := <-errCh:
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8787", "listen address")
	return cmd
}

func (s *serveStub) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *serveStub) handleQuery(w http.ResponseWriter, r *http.Request) {
	seed, err := resolveSeed(r.URL.Query().Get("seed"), r.URL.Query().Get("seed_hash"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	solverName := r.URL.Query().Get("solver")
	if solverName == "" {
		solverName = "andersen"
	}

	ctx := r.Context()
	constraints, err := s.slicer.Slice(ctx, seed)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var graph present.Graph
	switch solverName {
	case "andersen":
		pt := andersen.Run(constraints, nil)
		graph = present.FromAndersen(ctx, pt, seed, s.store.AstNode)
	case "steensgaard":
		res := steensgaard.Run(constraints)
		graph = present.FromSteensgaard(ctx, res, seed, s.store.AstNode)
	default:
		http.Error(w, model.ErrUnknownSolver.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(graph)
}
