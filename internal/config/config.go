// Package config loads the YAML configuration of an evaluation run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/deepretina/internal/metrics"
)

// Defaults applied by Validate.
const (
	DefaultBatchSize = 50
	DefaultHistory   = 40
	DefaultExptDate  = "15-10-07"
	DefaultStimType  = "naturalscene"
	DefaultMetric    = string(metrics.CC)
)

// Config captures the knobs of one evaluation run.
type Config struct {
	ModelDir   string `yaml:"model_dir"`
	WeightFile string `yaml:"weight_file"`
	DataDir    string `yaml:"data_dir"`
	ExptDate   string `yaml:"expt_date"`
	StimType   string `yaml:"stim_type"`
	Cells      []int  `yaml:"cells"`
	Metric     string `yaml:"metric"`
	BatchSize  int    `yaml:"batch_size"`
	History    int    `yaml:"history"`
	DBPath     string `yaml:"db_path"` // Optional; empty disables run persistence
}

// Overrides captures CLI supplied values.
type Overrides struct {
	ModelDir   string
	WeightFile string
	DataDir    string
	ExptDate   string
	StimType   string
	Cells      []int
	Metric     string
	BatchSize  int
	History    int
	DBPath     string
}

// Load reads a Config from YAML. Unknown keys are rejected. The result is
// not validated so that overrides can be applied first.
func Load(path string) (*Config, error) {
	//nolint:gosec // G304: config path comes from the command line
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg := &Config{}
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.ModelDir != "" {
		c.ModelDir = o.ModelDir
	}
	if o.WeightFile != "" {
		c.WeightFile = o.WeightFile
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.ExptDate != "" {
		c.ExptDate = o.ExptDate
	}
	if o.StimType != "" {
		c.StimType = o.StimType
	}
	if len(o.Cells) > 0 {
		c.Cells = append([]int(nil), o.Cells...)
	}
	if o.Metric != "" {
		c.Metric = o.Metric
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.History > 0 {
		c.History = o.History
	}
	if o.DBPath != "" {
		c.DBPath = o.DBPath
	}
}

// Validate verifies the config is runnable and fills defaults.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.ModelDir == "" {
		return errors.New("model_dir must be set")
	}
	if c.WeightFile == "" {
		return errors.New("weight_file must be set")
	}
	if c.DataDir == "" {
		return errors.New("data_dir must be set")
	}
	if len(c.Cells) == 0 {
		return errors.New("at least one cell must be listed")
	}
	for _, cell := range c.Cells {
		if cell < 0 {
			return fmt.Errorf("cells must be >= 0 (got %d)", cell)
		}
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.History < 0 {
		return fmt.Errorf("history must be > 0 (got %d)", c.History)
	}

	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.History == 0 {
		c.History = DefaultHistory
	}
	if c.ExptDate == "" {
		c.ExptDate = DefaultExptDate
	}
	if c.StimType == "" {
		c.StimType = DefaultStimType
	}
	if c.Metric == "" {
		c.Metric = DefaultMetric
	}
	if _, err := metrics.Lookup(c.Metric); err != nil {
		return err
	}
	return nil
}

// ParseCells parses a comma separated list of cell indices such as "0,2,5".
func ParseCells(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	cells := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("cell %q: %w", p, err)
		}
		cells = append(cells, v)
	}
	return cells, nil
}
