package loader

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/olekukonko/tablewriter"

	"github.com/born-ml/deepretina/internal/serialization"
	"github.com/born-ml/deepretina/internal/tensor"
)

// DatasetInfo describes one parameter dataset of a layer.
type DatasetInfo struct {
	Name  string
	Shape tensor.Shape
}

// String renders the dataset as "param_0 (8, 40, 13, 13)".
func (d *DatasetInfo) String() string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("%s %v", d.Name, d.Shape)
}

// LayerInfo describes one layer group of a weight file.
type LayerInfo struct {
	Name    string
	Weights *DatasetInfo // nil when the layer has no weights
	Biases  *DatasetInfo // nil when the layer has no biases
}

// HasParams reports whether the layer holds a weight or a bias dataset.
func (l LayerInfo) HasParams() bool {
	return l.Weights != nil || l.Biases != nil
}

// Layers enumerates the layer groups of path/weightFile in file order.
func Layers(path, weightFile string) ([]LayerInfo, error) {
	r, err := serialization.Open(filepath.Join(path, weightFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open weights: %w", err)
	}
	defer r.Close()

	groups := r.Groups()
	infos := make([]LayerInfo, 0, len(groups))
	for _, g := range groups {
		info := LayerInfo{Name: g.Name}
		if d, ok := g.Dataset(SlotWeights.DatasetName()); ok {
			info.Weights = &DatasetInfo{Name: d.Name, Shape: tensor.Shape(d.Shape)}
		}
		if d, ok := g.Dataset(SlotBiases.DatasetName()); ok {
			info.Biases = &DatasetInfo{Name: d.Name, Shape: tensor.Shape(d.Shape)}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ListLayers writes a three column table (layer, weights, biases) describing
// the weight file. Layers without parameters get blank cells; rows follow
// the file's group order.
func ListLayers(w io.Writer, path, weightFile string) error {
	infos, err := Layers(path, weightFile)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"layer", "weights", "biases"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, info := range infos {
		table.Append([]string{info.Name, info.Weights.String(), info.Biases.String()})
	}
	table.Render()
	return nil
}
