package experiments

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/born-ml/deepretina/internal/serialization"
)

// Dataset names inside a split group.
const (
	StimulusDataset = "stimulus"
	ResponseDataset = "response"
)

// FileExt is the extension of experiment files.
const FileExt = ".born"

// FileProvider reads experiments laid out as Root/<exptdate>/<stimtype>.born,
// one group per split.
type FileProvider struct {
	Root string
}

// Path returns the experiment file for a date and stimulus type.
func (p *FileProvider) Path(exptDate, stimType string) string {
	return filepath.Join(p.Root, exptDate, stimType+FileExt)
}

// LoadExpt loads and windows one split.
func (p *FileProvider) LoadExpt(key Key) (*Split, error) {
	rec, err := ReadRecording(p.Path(key.ExptDate, key.StimType), key.Split)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	split, err := NewSplit(rec, key.Cells, key.History)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return split, nil
}

// ReadRecording reads the raw stimulus and response of one split.
func ReadRecording(path, split string) (Recording, error) {
	r, err := serialization.Open(path)
	if err != nil {
		return Recording{}, fmt.Errorf("failed to open experiment: %w", err)
	}
	defer r.Close()

	if _, err := r.Group(split); err != nil {
		if errors.Is(err, serialization.ErrGroupNotFound) {
			return Recording{}, fmt.Errorf("%w: %q in %s", ErrSplitNotFound, split, path)
		}
		return Recording{}, err
	}
	stim, err := r.Dataset(split, StimulusDataset)
	if err != nil {
		return Recording{}, err
	}
	resp, err := r.Dataset(split, ResponseDataset)
	if err != nil {
		return Recording{}, err
	}
	return Recording{Name: split, Stimulus: stim, Response: resp}, nil
}

// WriteExpt writes recordings as the splits of one experiment file, creating
// the parent directory.
func WriteExpt(path string, recs ...Recording) error {
	if len(recs) == 0 {
		return errors.New("no recordings to write")
	}
	groups := make([]serialization.Group, len(recs))
	for i, rec := range recs {
		groups[i] = serialization.Group{
			Name: rec.Name,
			Datasets: []serialization.Dataset{
				{Name: StimulusDataset, Tensor: rec.Stimulus},
				{Name: ResponseDataset, Tensor: rec.Response},
			},
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // experiment directories are shared
		return fmt.Errorf("failed to create experiment directory: %w", err)
	}
	return serialization.WriteFile(path, groups, nil)
}
