package loader

import (
	"errors"
	"fmt"

	"github.com/born-ml/deepretina/internal/serialization"
	"github.com/born-ml/deepretina/internal/tensor"
)

// Lookup errors for GetWeights.
var (
	ErrLayerNotFound = errors.New("layer not found in weight file")
	ErrSlotNotFound  = errors.New("parameter slot not found in layer")
)

// Slot names one of the two parameters of a weighted layer.
type Slot int

// Parameter slots.
const (
	SlotWeights Slot = iota
	SlotBiases
)

// DatasetName returns the dataset that stores the slot ("param_0" or "param_1").
func (s Slot) DatasetName() string {
	return fmt.Sprintf("param_%d", int(s))
}

// String returns "weights" or "biases".
func (s Slot) String() string {
	switch s {
	case SlotWeights:
		return "weights"
	case SlotBiases:
		return "biases"
	}
	return fmt.Sprintf("Slot(%d)", int(s))
}

// ParseSlot accepts "weights", "biases", "param_0" and "param_1".
func ParseSlot(s string) (Slot, error) {
	switch s {
	case "weights", "param_0":
		return SlotWeights, nil
	case "biases", "param_1":
		return SlotBiases, nil
	}
	return 0, fmt.Errorf("unknown parameter slot %q (want weights or biases)", s)
}

// GetWeights returns one parameter tensor of one layer from a weight file.
func GetWeights(path, layerName string, slot Slot) (*tensor.Tensor, error) {
	r, err := serialization.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open weights: %w", err)
	}
	defer r.Close()

	group, err := r.Group(layerName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLayerNotFound, layerName)
	}
	if _, ok := group.Dataset(slot.DatasetName()); !ok {
		return nil, fmt.Errorf("%w: %s has no %s (%s)", ErrSlotNotFound, layerName, slot, slot.DatasetName())
	}
	return r.Dataset(layerName, slot.DatasetName())
}
