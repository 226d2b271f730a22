package store

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRun() Run {
	return Run{
		ModelDir:   "models/convnet",
		WeightFile: "epoch018_iter01300_weights.born",
		ExptDate:   "15-10-07",
		StimType:   "naturalscene",
		Metric:     "cc",
		Cells:      []int{0, 4, 2},
		Scores:     []float64{0.61, math.NaN(), 0.42},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := tempDB(t)

	id, err := s.SaveRun(sampleRun())
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	got, err := s.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "models/convnet", got.ModelDir)
	assert.Equal(t, "cc", got.Metric)
	assert.Equal(t, []int{0, 4, 2}, got.Cells)
	require.Len(t, got.Scores, 3)
	assert.Equal(t, 0.61, got.Scores[0])
	assert.True(t, math.IsNaN(got.Scores[1]))
	assert.Equal(t, 0.42, got.Scores[2])
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
}

func TestGetRun_NotFound(t *testing.T) {
	s := tempDB(t)
	_, err := s.GetRun(uuid.New().String())
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestSaveRun_MismatchedScores(t *testing.T) {
	s := tempDB(t)
	run := sampleRun()
	run.Scores = run.Scores[:1]
	_, err := s.SaveRun(run)
	assert.Error(t, err)
}

func TestListRuns_Ordered(t *testing.T) {
	s := tempDB(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []string
	for i, metric := range []string{"cc", "lli", "fev"} {
		run := sampleRun()
		run.Metric = metric
		run.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		id, err := s.SaveRun(run)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := s.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for i, run := range runs {
		assert.Equal(t, ids[i], run.ID)
		assert.Len(t, run.Scores, 3)
	}
	assert.Equal(t, "lli", runs[1].Metric)
	assert.True(t, base.Equal(runs[0].CreatedAt))

	require.NoError(t, s.DeleteRun(ids[1]))
	runs, err = s.ListRuns()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.True(t, errors.Is(s.DeleteRun(ids[1]), ErrRunNotFound))
}

func TestListRuns_Empty(t *testing.T) {
	s := tempDB(t)
	runs, err := s.ListRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)
}
