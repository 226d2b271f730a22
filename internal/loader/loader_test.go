package loader

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/born-ml/deepretina/internal/nn"
	"github.com/born-ml/deepretina/internal/serialization"
	"github.com/born-ml/deepretina/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weightFile = "epoch001_iter00010_weights.born"

func smallOptions() ConvNetOptions {
	return ConvNetOptions{
		NumFilters: [2]int{2, 3},
		FilterSize: 3,
		PoolSize:   2,
		WeightInit: InitNormal,
		L2Reg:      0.1,
	}
}

// saveSmallModel writes an initialized 8 layer convnet for a [4, 8, 8] stimulus and 2 cells.
func saveSmallModel(t *testing.T) (string, *nn.Sequential) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "convnet")

	arch, err := ConvNet([3]int{4, 8, 8}, 2, smallOptions())
	require.NoError(t, err)
	model, err := Build(arch)
	require.NoError(t, err)
	require.NoError(t, InitWeights(arch, model, 42))
	require.NoError(t, SaveModel(dir, weightFile, arch, model))
	return dir, model
}

func rampInput(t *testing.T, n int) *tensor.Tensor {
	t.Helper()
	x := tensor.Zeros(tensor.Shape{n, 4, 8, 8})
	for i := range x.Data() {
		x.Data()[i] = float64(i%17)/17.0 - 0.5
	}
	return x
}

func TestLoadModel_Idempotent(t *testing.T) {
	dir, saved := saveSmallModel(t)
	x := rampInput(t, 3)

	first, err := LoadModel(dir, weightFile)
	require.NoError(t, err)
	second, err := LoadModel(dir, weightFile)
	require.NoError(t, err)
	assert.Equal(t, 8, first.NumLayers())

	y1, err := first.Predict(x)
	require.NoError(t, err)
	y2, err := second.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 2}, y1.Shape())
	assert.Equal(t, y1.Data(), y2.Data())

	// Weights are stored as float32, so the saved model only matches to single precision.
	want, err := saved.Predict(x)
	require.NoError(t, err)
	assert.True(t, want.AllClose(y1, 1e-5))
}

func TestLoadModel_MissingFiles(t *testing.T) {
	dir, _ := saveSmallModel(t)

	_, err := LoadModel(dir, "missing_weights.born")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, os.Remove(filepath.Join(dir, ArchitectureFile)))
	_, err = LoadModel(dir, weightFile)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadModel_ShapeMismatch(t *testing.T) {
	dir, _ := saveSmallModel(t)

	// Same layer count, different filter count.
	opts := smallOptions()
	opts.NumFilters = [2]int{4, 3}
	arch, err := ConvNet([3]int{4, 8, 8}, 2, opts)
	require.NoError(t, err)
	other, err := Build(arch)
	require.NoError(t, err)
	require.NoError(t, SaveWeights(filepath.Join(dir, "other.born"), other))

	_, err = LoadModel(dir, "other.born")
	assert.True(t, errors.Is(err, nn.ErrShapeMismatch))
}

func TestLoadModel_LayerCountMismatch(t *testing.T) {
	dir, _ := saveSmallModel(t)

	opts := smallOptions()
	opts.PoolSize = 0
	arch, err := ConvNet([3]int{4, 8, 8}, 2, opts)
	require.NoError(t, err)
	other, err := Build(arch)
	require.NoError(t, err)
	require.NoError(t, SaveWeights(filepath.Join(dir, "nopool.born"), other))

	_, err = LoadModel(dir, "nopool.born")
	assert.True(t, errors.Is(err, ErrLayerCountMismatch))
}

func TestLoadPartialModel(t *testing.T) {
	dir, _ := saveSmallModel(t)
	model, err := LoadModel(dir, weightFile)
	require.NoError(t, err)

	conv, err := LoadPartialModel(model, 0)
	require.NoError(t, err)
	h, err := conv(rampInput(t, 2))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2, 6, 6}, h.Shape())

	flat, err := LoadPartialModel(model, 3)
	require.NoError(t, err)
	h, err = flat(rampInput(t, 2))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 18}, h.Shape())

	_, err = LoadPartialModel(model, model.NumLayers())
	assert.True(t, errors.Is(err, nn.ErrLayerOutOfRange))
}

func TestLayers_FileOrder(t *testing.T) {
	dir, model := saveSmallModel(t)

	infos, err := Layers(dir, weightFile)
	require.NoError(t, err)
	require.Len(t, infos, model.NumLayers())

	for k, info := range infos {
		assert.Equal(t, LayerGroupName(k), info.Name)
		assert.Equal(t, model.Layer(k).Params() != nil, info.HasParams(), "layer %d", k)
	}
	assert.Equal(t, tensor.Shape{2, 4, 3, 3}, infos[0].Weights.Shape)
	assert.Equal(t, tensor.Shape{2}, infos[0].Biases.Shape)
	assert.Nil(t, infos[1].Weights)
}

func TestLayers_ReportsGroupsAsWritten(t *testing.T) {
	dir := t.TempDir()
	file := "unordered.born"
	w := tensor.Zeros(tensor.Shape{3, 2})
	b := tensor.Zeros(tensor.Shape{2})
	require.NoError(t, serialization.WriteFile(filepath.Join(dir, file), []serialization.Group{
		{Name: "layer_0"},
		{Name: "layer_1", Datasets: []serialization.Dataset{{Name: "param_0", Tensor: w}, {Name: "param_1", Tensor: b}}},
		{Name: "layer_10"},
		{Name: "layer_2"},
	}, nil))

	infos, err := Layers(dir, file)
	require.NoError(t, err)
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	assert.Equal(t, []string{"layer_0", "layer_1", "layer_10", "layer_2"}, names)
}

func TestListLayers_Table(t *testing.T) {
	dir, model := saveSmallModel(t)

	var buf bytes.Buffer
	require.NoError(t, ListLayers(&buf, dir, weightFile))
	out := buf.String()

	assert.Contains(t, out, "layer")
	assert.Contains(t, out, "weights")
	assert.Contains(t, out, "biases")
	assert.Contains(t, out, "param_0 (2, 4, 3, 3)")
	assert.Contains(t, out, "param_1 (2,)")

	// One table row per group, in group order.
	last := -1
	for k := 0; k < model.NumLayers(); k++ {
		idx := strings.Index(out, LayerGroupName(k)+" ")
		require.GreaterOrEqual(t, idx, 0, "layer %d missing", k)
		assert.Greater(t, idx, last)
		last = idx
	}

	err := ListLayers(&buf, dir, "missing.born")
	assert.Error(t, err)
}

func TestGetWeights_Slots(t *testing.T) {
	dir, model := saveSmallModel(t)
	file := filepath.Join(dir, weightFile)

	weights, err := GetWeights(file, "layer_0", SlotWeights)
	require.NoError(t, err)
	biases, err := GetWeights(file, "layer_0", SlotBiases)
	require.NoError(t, err)

	params := model.Layer(0).Params()
	assert.Equal(t, params.Weights.Shape(), weights.Shape())
	assert.Equal(t, params.Biases.Shape(), biases.Shape())
	assert.NotEqual(t, weights.Shape(), biases.Shape())

	_, err = GetWeights(file, "layer_99", SlotWeights)
	assert.True(t, errors.Is(err, ErrLayerNotFound))

	_, err = GetWeights(file, "layer_1", SlotBiases)
	assert.True(t, errors.Is(err, ErrSlotNotFound))
}

func TestParseSlot(t *testing.T) {
	for in, want := range map[string]Slot{
		"weights": SlotWeights,
		"param_0": SlotWeights,
		"biases":  SlotBiases,
		"param_1": SlotBiases,
	} {
		got, err := ParseSlot(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSlot("param_2")
	assert.Error(t, err)

	assert.Equal(t, "param_1", SlotBiases.DatasetName())
}

func TestParseArchitecture_KerasLayout(t *testing.T) {
	arch, err := ParseArchitecture([]byte(`{
		"name": "Sequential",
		"loss": "poisson_loss",
		"layers": [
			{"name": "Convolution2D", "nb_filter": 2, "nb_row": 3, "nb_col": 3,
			 "input_shape": [4, 8, 8], "border_mode": "valid", "subsample": [1, 1],
			 "activation": "relu", "W_regularizer": {"name": "WeightRegularizer", "l1": 0, "l2": 0.1}},
			{"name": "Dropout", "p": 0.25},
			{"name": "Flatten"},
			{"name": "GaussianNoise", "sigma": 0.1},
			{"name": "Dense", "output_dim": 5, "activation": "softplus"}
		]
	}`))
	require.NoError(t, err)

	model, err := Build(arch)
	require.NoError(t, err)
	assert.Equal(t, 5, model.NumLayers())
	assert.Equal(t, tensor.Shape{5}, model.OutputShape())
	assert.Equal(t, 0.1, arch.Layers[0].WRegularizer.L2)
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(&Architecture{Layers: []LayerConfig{{Name: LayerFlatten}}})
	assert.True(t, errors.Is(err, ErrMissingInputShape))

	_, err = Build(&Architecture{Layers: []LayerConfig{{Name: "LSTM", InputShape: []int{3}}}})
	assert.True(t, errors.Is(err, ErrUnknownLayer))

	_, err = Build(&Architecture{Layers: []LayerConfig{{Name: LayerDense, InputShape: []int{3, 3}, OutputDim: 2}}})
	assert.True(t, errors.Is(err, nn.ErrShapeMismatch))

	arch, err := ParseArchitecture([]byte(`{"name": "Sequential", "layers": [
		{"name": "MaxPooling2D", "input_shape": [2, 8, 8], "pool_size": [2, 2], "stride": [0, 2]}
	]}`))
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		_, err = Build(arch)
	})
	assert.Error(t, err)

	_, err = ParseArchitecture([]byte(`{"name": "Sequential", "layers": []}`))
	assert.Error(t, err)
}
