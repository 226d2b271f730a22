package serialization

import (
	"time"

	"github.com/born-ml/deepretina/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "BORN"
	FormatVersion   = 3  // v3: grouped datasets with checksum in the JSON header
	HeaderAlignment = 64 // Align dataset data to 64 bytes
	FixedHeaderSize = 4 + 4 + 4 + 8
	DTypeFloat32    = "float32"
	float32Size     = 4
)

// Flags for the .born format.
const (
	FlagHasAttributes uint32 = 1 << 2 // bit 2: file-level attributes included
)

// Header represents the JSON header of a grouped .born file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	CreatedAt     time.Time         `json:"created_at"`
	Groups        []GroupMeta       `json:"groups"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	Checksum      string            `json:"checksum"` // hex SHA-256 of the data section
}

// GroupMeta describes one group and its datasets.
type GroupMeta struct {
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Datasets   []DatasetMeta     `json:"datasets"`
}

// DatasetMeta describes a dataset in the data section.
type DatasetMeta struct {
	Name   string `json:"name"`   // Dataset name within its group (e.g., "param_0")
	DType  string `json:"dtype"`  // Always "float32"
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Bytes from the start of the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// Dataset looks up a dataset of the group by name.
func (g *GroupMeta) Dataset(name string) (*DatasetMeta, bool) {
	for i := range g.Datasets {
		if g.Datasets[i].Name == name {
			return &g.Datasets[i], true
		}
	}
	return nil, false
}

// DatasetNames returns the dataset names of the group in file order.
func (g *GroupMeta) DatasetNames() []string {
	names := make([]string, len(g.Datasets))
	for i, d := range g.Datasets {
		names[i] = d.Name
	}
	return names
}

// Group is an in-memory group to be written.
type Group struct {
	Name       string
	Attributes map[string]string
	Datasets   []Dataset
}

// Dataset is an in-memory dataset to be written.
type Dataset struct {
	Name   string
	Tensor *tensor.Tensor
}

// datasetPath joins a group and dataset name for error messages.
func datasetPath(group, dataset string) string {
	if dataset == "" {
		return group
	}
	return group + "/" + dataset
}
