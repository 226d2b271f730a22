package experiments

import (
	"errors"
	"io"
	"math"
	"math/rand/v2"
	"path/filepath"
	"sort"
	"testing"

	"github.com/born-ml/deepretina/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recording returns frames of 3x3 pixels where frame t is filled with t, and
// a response where cell c fires 100*c + t at time t.
func recording(name string, frames, cells int) Recording {
	stim := tensor.Zeros(tensor.Shape{frames, 3, 3})
	for t := 0; t < frames; t++ {
		for i := 0; i < 9; i++ {
			stim.Data()[t*9+i] = float64(t)
		}
	}
	resp := tensor.Zeros(tensor.Shape{cells, frames})
	for c := 0; c < cells; c++ {
		for t := 0; t < frames; t++ {
			resp.Set(float64(100*c+t), c, t)
		}
	}
	return Recording{Name: name, Stimulus: stim, Response: resp}
}

func TestNewSplit_Windowing(t *testing.T) {
	split, err := NewSplit(recording(SplitTest, 20, 3), []int{2, 0}, 4)
	require.NoError(t, err)

	assert.Equal(t, 16, split.Len())
	assert.Equal(t, tensor.Shape{16, 4, 3, 3}, split.X.Shape())
	assert.Equal(t, tensor.Shape{16, 2}, split.Y.Shape())

	// Y follows the requested cell order, one step after the window.
	assert.Equal(t, 204.0, split.Y.At(0, 0))
	assert.Equal(t, 4.0, split.Y.At(0, 1))
	assert.Equal(t, 219.0, split.Y.At(15, 0))

	// Windows advance one frame per sample and the stimulus is z-scored.
	x := split.X.Data()
	mean := 9.5
	sd := math.Sqrt((20*20 - 1) / 12.0)
	assert.InDelta(t, (0-mean)/sd, split.X.At(0, 0, 0, 0), 1e-9)
	assert.InDelta(t, (3-mean)/sd, split.X.At(0, 3, 1, 1), 1e-9)
	assert.InDelta(t, (5-mean)/sd, split.X.At(2, 3, 2, 2), 1e-9)
	assert.Len(t, x, 16*4*9)
}

func TestNewSplit_Errors(t *testing.T) {
	rec := recording(SplitTest, 10, 2)

	_, err := NewSplit(rec, []int{2}, 4)
	assert.True(t, errors.Is(err, ErrInvalidCell))

	_, err = NewSplit(rec, []int{-1}, 4)
	assert.True(t, errors.Is(err, ErrInvalidCell))

	_, err = NewSplit(rec, nil, 4)
	assert.True(t, errors.Is(err, ErrInvalidCell))

	_, err = NewSplit(rec, []int{0}, 10)
	assert.True(t, errors.Is(err, ErrTooShort))

	bad := rec
	bad.Response = tensor.Zeros(tensor.Shape{2, 9})
	_, err = NewSplit(bad, []int{0}, 4)
	assert.True(t, errors.Is(err, tensor.ErrShape))
}

func TestFileProvider(t *testing.T) {
	p := &FileProvider{Root: t.TempDir()}
	path := p.Path("15-10-07", StimWhiteNoise)
	assert.Equal(t, filepath.Join(p.Root, "15-10-07", "whitenoise.born"), path)

	require.NoError(t, WriteExpt(path, recording(SplitTrain, 30, 4), recording(SplitTest, 12, 4)))

	split, err := p.LoadExpt(Key{Cells: []int{1, 3}, StimType: StimWhiteNoise, Split: SplitTest, History: 2, ExptDate: "15-10-07"})
	require.NoError(t, err)
	assert.Equal(t, 10, split.Len())
	assert.Equal(t, 102.0, split.Y.At(0, 0))
	assert.Equal(t, 302.0, split.Y.At(0, 1))

	_, err = p.LoadExpt(Key{Cells: []int{0}, StimType: StimWhiteNoise, Split: "validation", History: 2, ExptDate: "15-10-07"})
	assert.True(t, errors.Is(err, ErrSplitNotFound))

	_, err = p.LoadExpt(Key{Cells: []int{0}, StimType: StimNaturalScene, Split: SplitTest, History: 2, ExptDate: "15-10-07"})
	assert.Error(t, err)
}

func TestDataGen_OrderAndLength(t *testing.T) {
	split, err := NewSplit(recording(SplitTest, 130, 1), []int{0}, 4)
	require.NoError(t, err)
	require.Equal(t, 126, split.Len())

	gen, err := DataGen(50, split, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, gen.NumBatches())

	var sizes []int
	var ys []float64
	for {
		b, err := gen.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		sizes = append(sizes, b.Size())
		ys = append(ys, b.Y.Data()...)
	}

	assert.Equal(t, []int{50, 50, 26}, sizes)
	require.Len(t, ys, 126)
	for i, y := range ys {
		assert.Equal(t, float64(i+4), y)
	}

	_, err = gen.Next()
	assert.ErrorIs(t, err, io.EOF)
	gen.Reset()
	b, err := gen.Next()
	require.NoError(t, err)
	assert.Equal(t, 4.0, b.Y.At(0, 0))
}

func TestDataGen_Shuffle(t *testing.T) {
	split, err := NewSplit(recording(SplitTrain, 40, 1), []int{0}, 4)
	require.NoError(t, err)

	collect := func(seed uint64) []float64 {
		gen, err := DataGen(8, split, true, rand.New(rand.NewPCG(seed, 0)))
		require.NoError(t, err)
		var ys []float64
		for b, err := gen.Next(); err == nil; b, err = gen.Next() {
			ys = append(ys, b.Y.Data()...)
		}
		return ys
	}

	first := collect(7)
	assert.Equal(t, first, collect(7))

	sorted := append([]float64(nil), first...)
	sort.Float64s(sorted)
	for i, y := range sorted {
		assert.Equal(t, float64(i+4), y)
	}
}

func TestDataGen_InvalidBatchSize(t *testing.T) {
	split, err := NewSplit(recording(SplitTest, 10, 1), []int{0}, 2)
	require.NoError(t, err)
	_, err = DataGen(0, split, false, nil)
	assert.Error(t, err)
}
