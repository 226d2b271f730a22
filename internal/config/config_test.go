package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/deepretina/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
model_dir: models/convnet
weight_file: epoch018_iter01300_weights.born
data_dir: data
cells: [0, 2, 5]
metric: lli
history: 40
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "models/convnet", cfg.ModelDir)
	assert.Equal(t, []int{0, 2, 5}, cfg.Cells)
	assert.Equal(t, "lli", cfg.Metric)
	assert.Zero(t, cfg.BatchSize)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, DefaultExptDate, cfg.ExptDate)
	assert.Equal(t, DefaultStimType, cfg.StimType)
	assert.Empty(t, cfg.DBPath)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = Load(writeConfig(t, "model_dir: m\nlearning_rate: 0.1\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "cells: zero\n"))
	assert.Error(t, err)
}

func TestApplyOverrides(t *testing.T) {
	cfg := &Config{ModelDir: "a", WeightFile: "w.born", DataDir: "d", Cells: []int{0}, BatchSize: 10}
	cfg.ApplyOverrides(Overrides{ModelDir: "b", Cells: []int{3, 1}, Metric: "fev"})

	assert.Equal(t, "b", cfg.ModelDir)
	assert.Equal(t, "w.born", cfg.WeightFile)
	assert.Equal(t, []int{3, 1}, cfg.Cells)
	assert.Equal(t, "fev", cfg.Metric)
	assert.Equal(t, 10, cfg.BatchSize)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{ModelDir: "m", WeightFile: "w", DataDir: "d", Cells: []int{0}}
	}
	require.NoError(t, valid().Validate())

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())

	cfg := valid()
	cfg.ModelDir = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Cells = nil
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Cells = []int{-1}
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.BatchSize = -5
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Metric = "bogus"
	assert.True(t, errors.Is(cfg.Validate(), metrics.ErrUnknownMetric))
}

func TestParseCells(t *testing.T) {
	cells, err := ParseCells(" 0, 2,5 ")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 5}, cells)

	cells, err = ParseCells("")
	require.NoError(t, err)
	assert.Nil(t, cells)

	_, err = ParseCells("0,x")
	assert.Error(t, err)
}
