package loader

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/born-ml/deepretina/internal/nn"
	"github.com/born-ml/deepretina/internal/serialization"
	"github.com/born-ml/deepretina/internal/tensor"
)

// Weight initializers.
const (
	InitNormal        = "normal"
	InitGlorotUniform = "glorot_uniform"
)

// ConvNetOptions configures the convolutional retina model.
type ConvNetOptions struct {
	NumFilters [2]int  // Convolution filters, hidden dense units
	FilterSize int     // Square convolution kernel size
	PoolSize   int     // Max pooling window after the convolution; 0 disables pooling
	WeightInit string  // InitNormal or InitGlorotUniform
	L2Reg      float64 // Recorded in the architecture; unused at inference
}

// DefaultConvNetOptions returns the settings of the reference training run:
// 8 then 16 filters, 13x13 kernels, normal initialization and l2 = 0.1.
func DefaultConvNetOptions() ConvNetOptions {
	return ConvNetOptions{
		NumFilters: [2]int{8, 16},
		FilterSize: 13,
		PoolSize:   2,
		WeightInit: InitNormal,
		L2Reg:      0.1,
	}
}

// ConvNet returns the architecture of the convolutional retina model:
//
//	Convolution2D -> relu -> MaxPooling2D -> Flatten -> Dense -> relu -> Dense(cells) -> softplus
//
// stimShape is [history, height, width]; the output has one firing rate per cell.
func ConvNet(stimShape [3]int, nCells int, opts ConvNetOptions) (*Architecture, error) {
	if nCells <= 0 {
		return nil, fmt.Errorf("convnet: need at least one cell, got %d", nCells)
	}
	if opts.NumFilters[0] <= 0 || opts.NumFilters[1] <= 0 || opts.FilterSize <= 0 {
		return nil, fmt.Errorf("convnet: invalid filters %v of size %d", opts.NumFilters, opts.FilterSize)
	}

	var reg *Regularizer
	if opts.L2Reg > 0 {
		reg = &Regularizer{Name: "WeightRegularizer", L2: opts.L2Reg}
	}

	layers := []LayerConfig{
		{
			Name:         LayerConvolution2D,
			InputShape:   stimShape[:],
			NbFilter:     opts.NumFilters[0],
			NbRow:        opts.FilterSize,
			NbCol:        opts.FilterSize,
			BorderMode:   nn.BorderValid,
			Subsample:    []int{1, 1},
			Init:         opts.WeightInit,
			WRegularizer: reg,
		},
		{Name: LayerActivation, Activation: nn.ActivationReLU},
	}
	if opts.PoolSize > 0 {
		layers = append(layers, LayerConfig{Name: LayerMaxPooling2D, PoolSize: []int{opts.PoolSize, opts.PoolSize}})
	}
	layers = append(layers,
		LayerConfig{Name: LayerFlatten},
		LayerConfig{Name: LayerDense, OutputDim: opts.NumFilters[1], Init: opts.WeightInit, WRegularizer: reg},
		LayerConfig{Name: LayerActivation, Activation: nn.ActivationReLU},
		LayerConfig{Name: LayerDense, OutputDim: nCells, Init: opts.WeightInit},
		LayerConfig{Name: LayerActivation, Activation: nn.ActivationSoftplus},
	)

	arch := &Architecture{Name: "Sequential", Layers: layers, Loss: "poisson_loss"}
	if _, err := Build(arch); err != nil {
		return nil, fmt.Errorf("convnet: %w", err)
	}
	return arch, nil
}

// InitWeights fills every weighted layer of model using the initializer named
// in the matching layer config. The same seed always gives the same weights.
func InitWeights(arch *Architecture, model *nn.Sequential, seed uint64) error {
	if len(arch.Layers) != model.NumLayers() {
		return fmt.Errorf("%w: architecture has %d layers, model %d", ErrLayerCountMismatch, len(arch.Layers), model.NumLayers())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	for k, layer := range model.Layers() {
		params := layer.Params()
		if params == nil {
			continue
		}
		switch arch.Layers[k].Init {
		case InitNormal, "":
			nn.InitNormal(params, rng, nn.NormalScale)
		case InitGlorotUniform:
			fanIn, fanOut := fans(params.Weights.Shape(), layer)
			nn.InitGlorotUniform(params, rng, fanIn, fanOut)
		default:
			return fmt.Errorf("layer %d: unknown initializer %q", k, arch.Layers[k].Init)
		}
	}
	return nil
}

// fans computes fan-in and fan-out of a weight tensor.
func fans(w tensor.Shape, layer nn.Layer) (int, int) {
	if _, ok := layer.(*nn.Conv2D); ok && len(w) == 4 {
		receptive := w[2] * w[3]
		return w[1] * receptive, w[0] * receptive
	}
	return w[0], w[1]
}

// SaveModel writes dir/architecture.json and dir/weightFile for model.
func SaveModel(dir, weightFile string, arch *Architecture, model *nn.Sequential) error {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // model directories are shared
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	if err := WriteArchitecture(filepath.Join(dir, ArchitectureFile), arch); err != nil {
		return err
	}
	return SaveWeights(filepath.Join(dir, weightFile), model)
}

// SaveWeights writes one group per layer with the layer's parameters.
func SaveWeights(file string, model *nn.Sequential) error {
	groups := make([]serialization.Group, 0, model.NumLayers())
	for k, layer := range model.Layers() {
		g := serialization.Group{
			Name:       LayerGroupName(k),
			Attributes: map[string]string{"class_name": layer.Name()},
		}
		if p := layer.Params(); p != nil {
			g.Datasets = []serialization.Dataset{
				{Name: SlotWeights.DatasetName(), Tensor: p.Weights.Tensor()},
				{Name: SlotBiases.DatasetName(), Tensor: p.Biases.Tensor()},
			}
		}
		groups = append(groups, g)
	}
	attrs := map[string]string{"nb_layers": strconv.Itoa(model.NumLayers())}
	if err := serialization.WriteFile(file, groups, attrs); err != nil {
		return fmt.Errorf("failed to write weights: %w", err)
	}
	return nil
}
