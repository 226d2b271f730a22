// Package evaluate scores a trained model against held-out experiment data.
//
// The evaluator loads the test split of an experiment, runs the model over
// it batch by batch without shuffling, and applies a metric per cell:
//
//	ev := evaluate.New(&experiments.FileProvider{Root: "data"}, evaluate.DefaultOptions())
//	scores, err := ev.GetPerformance(model, "naturalscene", []int{0, 1, 2}, "cc")
//
// Column i of every result belongs to cells[i].
package evaluate

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/born-ml/deepretina/internal/experiments"
	"github.com/born-ml/deepretina/internal/metrics"
	"github.com/born-ml/deepretina/internal/nn"
	"github.com/born-ml/deepretina/internal/tensor"
)

// Defaults of the reference evaluation runs.
const (
	DefaultHistoryLength = 40
	DefaultBatchSize     = 50
	DefaultExptDate      = "15-10-07"
)

// Options configures an Evaluator.
type Options struct {
	HistoryLength int         // Stimulus frames per sample
	BatchSize     int         // Samples per forward pass
	ExptDate      string      // Experiment used when none is given
	Logger        *log.Logger // Batch progress; nil disables logging
}

// DefaultOptions returns history 40, batch size 50 and experiment 15-10-07.
func DefaultOptions() Options {
	return Options{
		HistoryLength: DefaultHistoryLength,
		BatchSize:     DefaultBatchSize,
		ExptDate:      DefaultExptDate,
	}
}

// Result holds the true and predicted responses over a whole split, both
// [N, len(cells)] and in sample order.
type Result struct {
	Truth       *tensor.Tensor
	Predictions *tensor.Tensor
}

// Cell returns the true and predicted series of column i.
func (r *Result) Cell(i int) (truth, pred []float64, err error) {
	if truth, err = r.Truth.Column(i); err != nil {
		return nil, nil, err
	}
	if pred, err = r.Predictions.Column(i); err != nil {
		return nil, nil, err
	}
	return truth, pred, nil
}

// Evaluator runs models over the test splits served by a provider.
type Evaluator struct {
	provider experiments.Provider
	opts     Options
}

// New creates an evaluator. Zero option fields take their defaults.
func New(provider experiments.Provider, opts Options) *Evaluator {
	def := DefaultOptions()
	if opts.HistoryLength <= 0 {
		opts.HistoryLength = def.HistoryLength
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.ExptDate == "" {
		opts.ExptDate = def.ExptDate
	}
	return &Evaluator{provider: provider, opts: opts}
}

// Options returns the effective options.
func (e *Evaluator) Options() Options {
	return e.opts
}

// GetTestResponses runs model over the test split of (exptDate, stimType)
// restricted to cells. An empty stimType means white noise and an empty
// exptDate the configured experiment.
func (e *Evaluator) GetTestResponses(model nn.Model, stimType string, cells []int, exptDate string) (*Result, error) {
	if stimType == "" {
		stimType = experiments.StimWhiteNoise
	}
	if exptDate == "" {
		exptDate = e.opts.ExptDate
	}

	key := experiments.Key{
		Cells:    cells,
		StimType: stimType,
		Split:    experiments.SplitTest,
		History:  e.opts.HistoryLength,
		ExptDate: exptDate,
	}
	split, err := e.provider.LoadExpt(key)
	if err != nil {
		return nil, err
	}

	gen, err := experiments.DataGen(e.opts.BatchSize, split, false, nil)
	if err != nil {
		return nil, err
	}

	var truths, preds []*tensor.Tensor
	for i := 0; ; i++ {
		batch, err := gen.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		pred, err := model.Predict(batch.X)
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", i, err)
		}
		if !pred.Shape().Equal(batch.Y.Shape()) {
			return nil, fmt.Errorf("%w: batch %d predicted %v for targets %v",
				nn.ErrShapeMismatch, i, pred.Shape(), batch.Y.Shape())
		}
		truths = append(truths, batch.Y)
		preds = append(preds, pred)
		e.logf("%s: batch %d/%d (%d samples)", key, i+1, gen.NumBatches(), batch.Size())
	}

	truth, err := tensor.Concat(truths...)
	if err != nil {
		return nil, err
	}
	pred, err := tensor.Concat(preds...)
	if err != nil {
		return nil, err
	}
	return &Result{Truth: truth, Predictions: pred}, nil
}

// GetCorrelation returns the Pearson correlation per cell.
func (e *Evaluator) GetCorrelation(model nn.Model, stimType string, cells []int) ([]float64, error) {
	return e.GetPerformance(model, stimType, cells, string(metrics.CC))
}

// GetPerformance scores every cell with the named metric and returns the
// scores in cells order. An empty stimType means natural scenes.
//
// The metric is resolved before any data is loaded; an unknown name fails
// with metrics.ErrUnknownMetric.
func (e *Evaluator) GetPerformance(model nn.Model, stimType string, cells []int, metric string) ([]float64, error) {
	score, err := metrics.Lookup(metric)
	if err != nil {
		return nil, err
	}
	if stimType == "" {
		stimType = experiments.StimNaturalScene
	}

	res, err := e.GetTestResponses(model, stimType, cells, "")
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(cells))
	for i := range cells {
		truth, pred, err := res.Cell(i)
		if err != nil {
			return nil, err
		}
		scores[i] = score(truth, pred)
	}
	e.logf("%s on %s: %v", metric, stimType, scores)
	return scores, nil
}

func (e *Evaluator) logf(format string, args ...any) {
	if e.opts.Logger != nil {
		e.opts.Logger.Printf(format, args...)
	}
}

// GetTestResponses evaluates with default options.
func GetTestResponses(model nn.Model, provider experiments.Provider, stimType string, cells []int, exptDate string) (*Result, error) {
	return New(provider, DefaultOptions()).GetTestResponses(model, stimType, cells, exptDate)
}

// GetCorrelation evaluates with default options.
func GetCorrelation(model nn.Model, provider experiments.Provider, stimType string, cells []int) ([]float64, error) {
	return New(provider, DefaultOptions()).GetCorrelation(model, stimType, cells)
}

// GetPerformance evaluates with default options.
func GetPerformance(model nn.Model, provider experiments.Provider, stimType string, cells []int, metric string) ([]float64, error) {
	return New(provider, DefaultOptions()).GetPerformance(model, stimType, cells, metric)
}
