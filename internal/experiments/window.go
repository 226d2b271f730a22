package experiments

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/born-ml/deepretina/internal/tensor"
)

// zscore returns a copy of t with zero mean and unit population standard
// deviation over all values. A constant stimulus is only centered.
func zscore(t *tensor.Tensor) *tensor.Tensor {
	out := t.Clone()
	data := out.Data()
	mean, variance := stat.PopMeanVariance(data, nil)
	floats.AddConst(-mean, data)
	if sd := math.Sqrt(variance); sd > 0 {
		floats.Scale(1/sd, data)
	}
	return out
}

// rollingWindow stacks every run of history consecutive frames that is
// followed by at least one more frame: [T, H, W] -> [T-history, history, H, W].
func rollingWindow(stim *tensor.Tensor, history int) (*tensor.Tensor, error) {
	n := stim.Dim(0) - history
	windows := make([]*tensor.Tensor, n)
	for i := range windows {
		w, err := stim.Slice(i, i+history)
		if err != nil {
			return nil, err
		}
		windows[i] = w
	}
	return tensor.Stack(windows...)
}
