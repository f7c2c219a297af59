package main

import (
	"context"
	"fmt"
	"os"

	"github.com/oxhq/pointa/internal/model"
	"github.com/oxhq/pointa/internal/store"
)

// fallbackSlicer tries the remote graph-DB back-end first and drops back
// to the local store on any error: the failure is logged and the query
// proceeds against local data rather than aborting.
type fallbackSlicer struct {
	remote store.Slicer
	local  store.Slicer
}

func (f fallbackSlicer) Slice(ctx context.Context, seed uint64) ([]model.Constraint, error) {
	constraints, err := f.remote.Slice(ctx, seed)
	if err == nil {
		return constraints, nil
	}
	fmt.Fprintf(os.Stderr, "pointa: %v: %v\n", model.ErrRemoteFallback, err)
	return f.local.Slice(ctx, seed)
}
