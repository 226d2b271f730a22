package nn

import (
	"math"
	"math/rand/v2"

	"github.com/born-ml/deepretina/internal/tensor"
)

// NormalScale is the standard deviation used by the "normal" initializer.
const NormalScale = 0.05

// InitNormal fills the weights with N(0, scale^2) samples and the biases with
// zeros.
func InitNormal(p *Params, rng *rand.Rand, scale float64) {
	w := tensor.Zeros(p.Weights.Shape())
	data := w.Data()
	for i := range data {
		data[i] = rng.NormFloat64() * scale
	}
	p.Weights.tensor = w
	p.Biases.tensor = tensor.Zeros(p.Biases.Shape())
}

// InitGlorotUniform fills the weights from U(-b, b) with
// b = sqrt(6 / (fanIn + fanOut)) and the biases with zeros.
func InitGlorotUniform(p *Params, rng *rand.Rand, fanIn, fanOut int) {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	w := tensor.Zeros(p.Weights.Shape())
	data := w.Data()
	for i := range data {
		data[i] = (rng.Float64()*2.0 - 1.0) * bound
	}
	p.Weights.tensor = w
	p.Biases.tensor = tensor.Zeros(p.Biases.Shape())
}
