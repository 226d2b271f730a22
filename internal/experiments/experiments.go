// Package experiments loads recorded retina experiments and turns them into
// model-ready batches.
//
// An experiment is a stimulus movie [T, H, W] shown to the retina while the
// firing rates of C cells were recorded [C, T]. Each split (train, test) is
// stored separately. Loading a split windows the stimulus into samples of
// the most recent History frames and pairs each with the response of the
// requested cells at the following time step:
//
//	X[i] = stimulus[i : i+History]        shape [History, H, W]
//	Y[i] = response[cells, i+History]     shape [len(cells)]
//
// so a split of T frames yields N = T - History samples.
package experiments

import (
	"errors"
	"fmt"

	"github.com/born-ml/deepretina/internal/tensor"
)

// Split names.
const (
	SplitTrain = "train"
	SplitTest  = "test"
)

// Stimulus types recorded in the reference experiments.
const (
	StimWhiteNoise   = "whitenoise"
	StimNaturalScene = "naturalscene"
)

// Errors returned while loading experiments.
var (
	ErrSplitNotFound = errors.New("split not found in experiment")
	ErrInvalidCell   = errors.New("cell index out of range")
	ErrTooShort      = errors.New("recording shorter than stimulus history")
)

// Key identifies one split of one experiment.
type Key struct {
	Cells    []int  // Response channels to keep, in this order
	StimType string // e.g. "whitenoise"
	Split    string // "train" or "test"
	History  int    // Stimulus frames per sample
	ExptDate string // Experiment directory, e.g. "15-10-07"
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s[%s] cells=%v history=%d", k.ExptDate, k.StimType, k.Split, k.Cells, k.History)
}

// Split holds the windowed samples of one split.
type Split struct {
	X *tensor.Tensor // [N, History, H, W]
	Y *tensor.Tensor // [N, len(cells)]
}

// Len returns the number of samples.
func (s *Split) Len() int {
	return s.X.Dim(0)
}

// Provider loads experiment splits.
type Provider interface {
	LoadExpt(key Key) (*Split, error)
}

// Recording is the raw content of one split: a stimulus movie and the
// simultaneous firing rates of every recorded cell.
type Recording struct {
	Name     string         // Split name
	Stimulus *tensor.Tensor // [T, H, W]
	Response *tensor.Tensor // [C, T]
}

// NewSplit windows a recording into samples. The stimulus is z-scored before
// windowing; the response is used as recorded.
func NewSplit(rec Recording, cells []int, history int) (*Split, error) {
	stim, resp := rec.Stimulus, rec.Response
	if len(stim.Shape()) != 3 {
		return nil, fmt.Errorf("%w: stimulus must be [T H W], got %v", tensor.ErrShape, stim.Shape())
	}
	if len(resp.Shape()) != 2 {
		return nil, fmt.Errorf("%w: response must be [C T], got %v", tensor.ErrShape, resp.Shape())
	}
	frames, nCells := stim.Dim(0), resp.Dim(0)
	if resp.Dim(1) != frames {
		return nil, fmt.Errorf("%w: stimulus has %d frames, response %d", tensor.ErrShape, frames, resp.Dim(1))
	}
	if history <= 0 {
		return nil, fmt.Errorf("history must be positive, got %d", history)
	}
	if frames <= history {
		return nil, fmt.Errorf("%w: %d frames, history %d", ErrTooShort, frames, history)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("%w: no cells requested", ErrInvalidCell)
	}
	for _, c := range cells {
		if c < 0 || c >= nCells {
			return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidCell, c, nCells)
		}
	}

	x, err := rollingWindow(zscore(stim), history)
	if err != nil {
		return nil, err
	}

	n := frames - history
	y := tensor.Zeros(tensor.Shape{n, len(cells)})
	for i := 0; i < n; i++ {
		for j, c := range cells {
			y.Set(resp.At(c, i+history), i, j)
		}
	}
	return &Split{X: x, Y: y}, nil
}
