package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/pointa/internal/model"
)

type stubSlicer struct {
	constraints []model.Constraint
	err         error
}

func (s stubSlicer) Slice(context.Context, uint64) ([]model.Constraint, error) {
	return s.constraints, s.err
}

func TestFallbackSlicerUsesRemoteOnSuccess(t *testing.T) {
	want := []model.Constraint{{ID: 1}}
	f := fallbackSlicer{
		remote: stubSlicer{constraints: want},
		local:  stubSlicer{err: errors.New("local should not be consulted")},
	}

	got, err := f.Slice(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFallbackSlicerFallsBackToLocalOnRemoteError(t *testing.T) {
	want := []model.Constraint{{ID: 2}}
	f := fallbackSlicer{
		remote: stubSlicer{err: errors.New("connection refused")},
		local:  stubSlicer{constraints: want},
	}

	got, err := f.Slice(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
