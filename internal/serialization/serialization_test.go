package serialization

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/deepretina/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTensor(t *testing.T, shape tensor.Shape, data []float64) *tensor.Tensor {
	t.Helper()
	x, err := tensor.New(shape, data)
	require.NoError(t, err)
	return x
}

func writeWeights(t *testing.T) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "weights.born")
	w := mustTensor(t, tensor.Shape{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	b := mustTensor(t, tensor.Shape{3}, []float64{0.5, -0.5, 0.25})

	err := WriteFile(file, []Group{
		{Name: "layer_0", Datasets: []Dataset{{Name: "param_0", Tensor: w}, {Name: "param_1", Tensor: b}}},
		{Name: "layer_1"},
		{Name: "layer_10", Attributes: map[string]string{"kind": "dense"}},
		{Name: "layer_2"},
	}, map[string]string{"nb_layers": "4"})
	require.NoError(t, err)
	return file
}

func TestReader_GroupsInWriteOrder(t *testing.T) {
	r, err := Open(writeWeights(t))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"layer_0", "layer_1", "layer_10", "layer_2"}, r.GroupNames())
	assert.Equal(t, "4", r.Attributes()["nb_layers"])

	g, err := r.Group("layer_0")
	require.NoError(t, err)
	assert.Equal(t, []string{"param_0", "param_1"}, g.DatasetNames())

	empty, err := r.Group("layer_1")
	require.NoError(t, err)
	assert.Empty(t, empty.Datasets)
}

func TestReader_Dataset(t *testing.T) {
	r, err := Open(writeWeights(t))
	require.NoError(t, err)
	defer r.Close()

	w, err := r.Dataset("layer_0", "param_0")
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, w.Shape())
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, w.Data())

	b, err := r.Dataset("layer_0", "param_1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -0.5, 0.25}, b.Data())

	_, err = r.Dataset("layer_1", "param_0")
	assert.True(t, errors.Is(err, ErrDatasetNotFound))

	_, err = r.Dataset("layer_9", "param_0")
	assert.True(t, errors.Is(err, ErrGroupNotFound))
}

func TestReader_Closed(t *testing.T) {
	r, err := Open(writeWeights(t))
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err = r.Dataset("layer_0", "param_0")
	assert.True(t, errors.Is(err, ErrReaderClosed))
}

func TestOpen_ChecksumMismatch(t *testing.T) {
	file := writeWeights(t)
	raw, err := os.ReadFile(file)
	require.NoError(t, err)

	// Flip a bit in the last dataset byte.
	raw[len(raw)-1] ^= 0x01
	require.NoError(t, os.WriteFile(file, raw, 0o600))

	_, err = Open(file)
	assert.True(t, errors.Is(err, ErrChecksumMismatch))

	r, err := OpenWithOptions(file, ReaderOptions{SkipChecksumValidation: true})
	require.NoError(t, err)
	_ = r.Close()
}

func TestOpen_InvalidMagic(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bogus.born")
	require.NoError(t, os.WriteFile(file, []byte("HDF5 not really a born file"), 0o600))

	_, err := Open(file)
	assert.True(t, errors.Is(err, ErrInvalidMagic))
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.born"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWriteFile_NilTensor(t *testing.T) {
	file := filepath.Join(t.TempDir(), "weights.born")
	err := WriteFile(file, []Group{
		{Name: "layer_0", Datasets: []Dataset{{Name: "param_0"}}},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layer_0/param_0")

	_, statErr := os.Stat(file)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestWriteFile_RejectsBadNames(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.born")
	x := mustTensor(t, tensor.Shape{1}, []float64{1})

	err := WriteFile(file, []Group{{Name: "../escape", Datasets: []Dataset{{Name: "param_0", Tensor: x}}}}, nil)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "invalid_name", verr.Type)

	err = WriteFile(file, []Group{{Name: "a"}, {Name: "a"}}, nil)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "duplicate_name", verr.Type)
}

func TestValidateOffsets(t *testing.T) {
	groups := []GroupMeta{
		{Name: "g", Datasets: []DatasetMeta{
			{Name: "a", Offset: 0, Size: 100},
			{Name: "b", Offset: 50, Size: 100},
		}},
	}
	err := ValidateOffsets(groups, 200)
	assert.True(t, errors.Is(err, ErrOffsetOverlap))

	groups[0].Datasets[1].Offset = 100
	assert.NoError(t, ValidateOffsets(groups, 200))

	err = ValidateOffsets(groups, 150)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
}
