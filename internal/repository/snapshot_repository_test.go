package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ctt-evolver/internal/dto"
	appErrors "github.com/noah-isme/ctt-evolver/pkg/errors"
)

func TestSnapshotRepositoryWithoutClient(t *testing.T) {
	repo := NewSnapshotRepository(nil, nil)

	require.NoError(t, repo.SaveBest(context.Background(), "ctt:best", &dto.SolutionSnapshot{RunID: "run-1"}, time.Minute))

	_, err := repo.GetBest(context.Background(), "ctt:best")
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Close())
}
