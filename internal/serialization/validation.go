package serialization

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/deepretina/internal/tensor"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize  = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxGroupCount  = 100_000           // Maximum number of groups in a file
	MaxDatasetsPer = 1024              // Maximum number of datasets in one group
	MaxNameLen     = 4096              // Maximum group or dataset name length
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict performs all validation checks (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks names and shapes but not offsets.
	ValidationNormal
	// ValidationNone skips validation. Use only with trusted input.
	ValidationNone
)

// ValidateName checks group and dataset names for path separators, traversal
// patterns and null bytes.
func ValidateName(name string) error {
	if name == "" {
		return &ValidationError{Type: "invalid_name", Details: "empty name"}
	}
	if len(name) > MaxNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Name:    name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxNameLen),
		}
	}
	if strings.Contains(name, "..") {
		return &ValidationError{Type: "invalid_name", Name: name, Details: "contains '..'"}
	}
	if strings.ContainsAny(name, "/\\") {
		return &ValidationError{Type: "invalid_name", Name: name, Details: "contains path separator (/ or \\)"}
	}
	if strings.Contains(name, "\x00") {
		return &ValidationError{Type: "invalid_name", Name: name, Details: "contains null byte"}
	}
	return nil
}

type placedDataset struct {
	path string
	meta DatasetMeta
}

// ValidateOffsets checks for overlapping dataset regions and out-of-bounds access.
func ValidateOffsets(groups []GroupMeta, dataSize int64) error {
	var placed []placedDataset
	for _, g := range groups {
		for _, d := range g.Datasets {
			placed = append(placed, placedDataset{path: datasetPath(g.Name, d.Name), meta: d})
		}
	}

	sort.Slice(placed, func(i, j int) bool {
		return placed[i].meta.Offset < placed[j].meta.Offset
	})

	for i, p := range placed {
		if p.meta.Offset < 0 || p.meta.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Name:    p.path,
				Details: fmt.Sprintf("offset=%d, size=%d (negative values not allowed)", p.meta.Offset, p.meta.Size),
			}
		}
		if p.meta.Offset+p.meta.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Name:    p.path,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", p.meta.Offset, p.meta.Size, dataSize),
			}
		}
		if i < len(placed)-1 {
			next := placed[i+1]
			if p.meta.Offset+p.meta.Size > next.meta.Offset {
				return &ValidationError{
					Type:  "offset_overlap",
					Name:  p.path,
					Name2: next.path,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						p.meta.Offset, p.meta.Offset+p.meta.Size, next.meta.Offset, next.meta.Offset+next.meta.Size),
				}
			}
		}
	}
	return nil
}

// validateDataset checks dtype and that the declared size matches the shape.
func validateDataset(group string, d DatasetMeta) error {
	if err := ValidateName(d.Name); err != nil {
		return err
	}
	if d.DType != DTypeFloat32 {
		return &ValidationError{Type: "unsupported_dtype", Name: datasetPath(group, d.Name), Details: d.DType}
	}
	shape := tensor.Shape(d.Shape)
	if err := shape.Validate(); err != nil {
		return &ValidationError{Type: "invalid_shape", Name: datasetPath(group, d.Name), Details: err.Error()}
	}
	if want := int64(shape.NumElements() * float32Size); d.Size != want {
		return &ValidationError{
			Type:    "size_mismatch",
			Name:    datasetPath(group, d.Name),
			Details: fmt.Sprintf("size %d for shape %v, want %d", d.Size, shape, want),
		}
	}
	return nil
}

// ValidateHeader performs header validation at the requested level.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if len(h.Groups) > MaxGroupCount {
		return &ValidationError{
			Type:    "too_many_groups",
			Details: fmt.Sprintf("got %d, max %d", len(h.Groups), MaxGroupCount),
		}
	}

	seen := make(map[string]bool, len(h.Groups))
	for _, g := range h.Groups {
		if err := ValidateName(g.Name); err != nil {
			return err
		}
		if seen[g.Name] {
			return &ValidationError{Type: "duplicate_name", Name: g.Name, Details: "group appears twice"}
		}
		seen[g.Name] = true

		if len(g.Datasets) > MaxDatasetsPer {
			return &ValidationError{
				Type:    "too_many_datasets",
				Name:    g.Name,
				Details: fmt.Sprintf("got %d, max %d", len(g.Datasets), MaxDatasetsPer),
			}
		}
		names := make(map[string]bool, len(g.Datasets))
		for _, d := range g.Datasets {
			if err := validateDataset(g.Name, d); err != nil {
				return err
			}
			if names[d.Name] {
				return &ValidationError{Type: "duplicate_name", Name: datasetPath(g.Name, d.Name), Details: "dataset appears twice"}
			}
			names[d.Name] = true
		}
	}

	if level == ValidationStrict {
		if err := ValidateOffsets(h.Groups, dataSize); err != nil {
			return err
		}
	}

	return nil
}
