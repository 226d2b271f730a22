package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/born-ml/deepretina/internal/nn"
	"github.com/born-ml/deepretina/internal/tensor"
)

// ArchitectureFile is the fixed name of the architecture description inside
// a model directory.
const ArchitectureFile = "architecture.json"

// Layer class names understood by Build.
const (
	LayerConvolution2D = "Convolution2D"
	LayerDense         = "Dense"
	LayerActivation    = "Activation"
	LayerMaxPooling2D  = "MaxPooling2D"
	LayerFlatten       = "Flatten"
	LayerDropout       = "Dropout"
	LayerGaussianNoise = "GaussianNoise"
)

// Architecture errors.
var (
	ErrMissingInputShape = errors.New("first layer has no input_shape")
	ErrUnknownLayer      = errors.New("unknown layer type")
)

// Architecture is the decoded architecture.json.
type Architecture struct {
	Name      string         `json:"name"`
	Layers    []LayerConfig  `json:"layers"`
	Loss      string         `json:"loss,omitempty"`
	Optimizer map[string]any `json:"optimizer,omitempty"`
}

// LayerConfig holds the union of the fields used by the supported layers.
type LayerConfig struct {
	Name       string `json:"name"`
	InputShape []int  `json:"input_shape,omitempty"`
	Activation string `json:"activation,omitempty"`
	Init       string `json:"init,omitempty"`

	// Convolution2D
	NbFilter   int    `json:"nb_filter,omitempty"`
	NbRow      int    `json:"nb_row,omitempty"`
	NbCol      int    `json:"nb_col,omitempty"`
	BorderMode string `json:"border_mode,omitempty"`
	Subsample  []int  `json:"subsample,omitempty"`

	// Dense
	OutputDim int `json:"output_dim,omitempty"`
	InputDim  int `json:"input_dim,omitempty"`

	// MaxPooling2D
	PoolSize []int `json:"pool_size,omitempty"`
	Stride   []int `json:"stride,omitempty"`

	// Dropout, GaussianNoise
	P     float64 `json:"p,omitempty"`
	Sigma float64 `json:"sigma,omitempty"`

	WRegularizer *Regularizer `json:"W_regularizer,omitempty"`
}

// Regularizer describes a weight penalty. It has no effect at inference and
// is kept so architectures round-trip.
type Regularizer struct {
	Name string  `json:"name"`
	L1   float64 `json:"l1"`
	L2   float64 `json:"l2"`
}

// ReadArchitecture reads and decodes an architecture file.
func ReadArchitecture(path string) (*Architecture, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read architecture: %w", err)
	}
	return ParseArchitecture(data)
}

// ParseArchitecture decodes an architecture description.
func ParseArchitecture(data []byte) (*Architecture, error) {
	var arch Architecture
	if err := json.Unmarshal(data, &arch); err != nil {
		return nil, fmt.Errorf("failed to parse architecture JSON: %w", err)
	}
	if len(arch.Layers) == 0 {
		return nil, fmt.Errorf("architecture %q has no layers", arch.Name)
	}
	return &arch, nil
}

// WriteArchitecture encodes arch as indented JSON at path.
func WriteArchitecture(path string, arch *Architecture) error {
	data, err := json.MarshalIndent(arch, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal architecture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // model files are not secret
		return fmt.Errorf("failed to write architecture: %w", err)
	}
	return nil
}

// Build creates a model with zero-filled parameters from an architecture.
//
// Per-sample shapes are propagated from the first layer's input_shape, so
// only that layer needs one.
func Build(arch *Architecture) (*nn.Sequential, error) {
	if len(arch.Layers) == 0 || len(arch.Layers[0].InputShape) == 0 {
		return nil, ErrMissingInputShape
	}

	shape := tensor.Shape(arch.Layers[0].InputShape).Clone()
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input_shape: %w", err)
	}

	layers := make([]nn.Layer, 0, len(arch.Layers))
	for i, cfg := range arch.Layers {
		layer, err := buildLayer(cfg, shape)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, cfg.Name, err)
		}
		layers = append(layers, layer)
		shape = layer.OutputShape()
	}
	return nn.NewSequential(layers...)
}

func buildLayer(cfg LayerConfig, in tensor.Shape) (nn.Layer, error) {
	switch cfg.Name {
	case LayerConvolution2D:
		stride, err := pair(cfg.Subsample, [2]int{1, 1})
		if err != nil {
			return nil, fmt.Errorf("subsample: %w", err)
		}
		return nn.NewConv2D(in, cfg.NbFilter, cfg.NbRow, cfg.NbCol, cfg.BorderMode, stride, cfg.Activation)

	case LayerDense:
		if len(in) != 1 {
			return nil, fmt.Errorf("%w: dense needs flat input, got %v", nn.ErrShapeMismatch, in)
		}
		if cfg.InputDim != 0 && cfg.InputDim != in[0] {
			return nil, fmt.Errorf("%w: input_dim %d but previous layer outputs %d", nn.ErrShapeMismatch, cfg.InputDim, in[0])
		}
		return nn.NewDense(in[0], cfg.OutputDim, cfg.Activation)

	case LayerActivation:
		return nn.NewActivation(cfg.Activation, in)

	case LayerMaxPooling2D:
		pool, err := pair(cfg.PoolSize, [2]int{2, 2})
		if err != nil {
			return nil, fmt.Errorf("pool_size: %w", err)
		}
		stride, err := pair(cfg.Stride, [2]int{})
		if err != nil {
			return nil, fmt.Errorf("stride: %w", err)
		}
		return nn.NewMaxPool2D(in, pool, stride)

	case LayerFlatten:
		return nn.NewFlatten(in), nil

	case LayerDropout:
		return nn.NewDropout(cfg.P, in)

	case LayerGaussianNoise:
		return nn.NewGaussianNoise(cfg.Sigma, in)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, cfg.Name)
}

// pair decodes a two element list, falling back to def when absent.
func pair(v []int, def [2]int) ([2]int, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 2:
		return [2]int{v[0], v[1]}, nil
	}
	return [2]int{}, fmt.Errorf("want 2 values, got %d", len(v))
}
