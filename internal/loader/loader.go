package loader

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/born-ml/deepretina/internal/nn"
	"github.com/born-ml/deepretina/internal/serialization"
)

// Weight file errors.
var (
	ErrLayerCountMismatch = errors.New("weight file layer count does not match architecture")
	ErrParamCountMismatch = errors.New("weight file parameter count does not match layer")
)

// LoadModel builds the model described by path/architecture.json and binds
// it to the parameters in path/weightFile.
func LoadModel(path, weightFile string) (*nn.Sequential, error) {
	arch, err := ReadArchitecture(filepath.Join(path, ArchitectureFile))
	if err != nil {
		return nil, err
	}

	model, err := Build(arch)
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}

	if err := LoadWeights(model, filepath.Join(path, weightFile)); err != nil {
		return nil, err
	}
	return model, nil
}

// LoadWeights copies the parameters in a weight file into model.
//
// Group "layer_<k>" feeds layer k. The file must have exactly one group per
// layer, and every dataset must match the declared parameter shape.
func LoadWeights(model *nn.Sequential, file string) error {
	r, err := serialization.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open weights: %w", err)
	}
	defer r.Close()

	if got, want := len(r.Groups()), model.NumLayers(); got != want {
		return fmt.Errorf("%w: %d groups for %d layers", ErrLayerCountMismatch, got, want)
	}

	for k, layer := range model.Layers() {
		name := LayerGroupName(k)
		group, err := r.Group(name)
		if err != nil {
			return err
		}

		params := layer.Params()
		if params == nil {
			if len(group.Datasets) != 0 {
				return fmt.Errorf("%w: %s (%s) has no parameters but %d datasets",
					ErrParamCountMismatch, name, layer.Name(), len(group.Datasets))
			}
			continue
		}
		if len(group.Datasets) != 2 {
			return fmt.Errorf("%w: %s (%s) needs 2 datasets, found %d",
				ErrParamCountMismatch, name, layer.Name(), len(group.Datasets))
		}

		weights, err := r.Dataset(name, SlotWeights.DatasetName())
		if err != nil {
			return err
		}
		biases, err := r.Dataset(name, SlotBiases.DatasetName())
		if err != nil {
			return err
		}
		if err := params.Load(weights, biases); err != nil {
			return fmt.Errorf("%s (%s): %w", name, layer.Name(), err)
		}
	}
	return nil
}

// LoadPartialModel returns an inference function whose output is the
// activation at layerID, given the same input as the full model.
func LoadPartialModel(model nn.Model, layerID int) (nn.InferenceFunc, error) {
	return model.Partial(layerID)
}

// LayerGroupName returns the weight file group name of layer k.
func LayerGroupName(k int) string {
	return fmt.Sprintf("layer_%d", k)
}
