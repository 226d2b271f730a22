package nn

import (
	"fmt"

	"github.com/born-ml/deepretina/internal/tensor"
)

// Border modes for Conv2D.
const (
	BorderValid = "valid"
	BorderSame  = "same"
)

// Conv2D is a 2D convolutional layer.
//
// The kernel is flipped before it slides over the input (true convolution),
// matching the Theano backend that produced the weight files:
//
//	out[n,f,i,j] = b[f] + sum_{c,u,v} x[n, c, i*s+u-p, j*s+v-p] * W[f, c, kh-1-u, kw-1-v]
//
// Input shape:  [batch, channels, height, width]
// Weight shape: [filters, channels, kernel_h, kernel_w]
// Bias shape:   [filters]
// Output shape: [batch, filters, out_h, out_w]
//
// For retina models the channel axis is the stimulus history, so a model for
// a 40 frame window over a 50x50 stimulus has input shape [40, 50, 50].
type Conv2D struct {
	inShape    tensor.Shape // [channels, height, width]
	outShape   tensor.Shape // [filters, out_h, out_w]
	filters    int
	kernelSize [2]int
	stride     [2]int
	padding    [2]int
	border     string
	activation string

	params *Params
}

// NewConv2D creates a convolutional layer with zero-filled parameters.
//
// Parameters:
//   - inShape: per-sample input shape [channels, height, width]
//   - filters: number of output channels
//   - kernelH, kernelW: kernel dimensions
//   - border: BorderValid (no padding) or BorderSame (odd kernels only)
//   - stride: subsample factors (rows, cols)
//   - activation: applied after the bias ("" or "linear" for none)
func NewConv2D(
	inShape tensor.Shape,
	filters, kernelH, kernelW int,
	border string,
	stride [2]int,
	activation string,
) (*Conv2D, error) {
	if len(inShape) != 3 {
		return nil, fmt.Errorf("%w: conv2d expects [C,H,W] input, got %v", ErrShapeMismatch, inShape)
	}
	if filters <= 0 || kernelH <= 0 || kernelW <= 0 {
		return nil, fmt.Errorf("conv2d: invalid filters=%d kernel=%dx%d", filters, kernelH, kernelW)
	}
	if stride[0] <= 0 || stride[1] <= 0 {
		return nil, fmt.Errorf("conv2d: invalid stride %v", stride)
	}
	if activation != "" && !ValidActivation(activation) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivation, activation)
	}

	var padding [2]int
	switch border {
	case BorderValid, "":
		border = BorderValid
	case BorderSame:
		if kernelH%2 == 0 || kernelW%2 == 0 {
			return nil, fmt.Errorf("conv2d: border mode %q needs odd kernel, got %dx%d", border, kernelH, kernelW)
		}
		padding = [2]int{(kernelH - 1) / 2, (kernelW - 1) / 2}
	default:
		return nil, fmt.Errorf("conv2d: unknown border mode %q", border)
	}

	channels, height, width := inShape[0], inShape[1], inShape[2]
	outH := (height+2*padding[0]-kernelH)/stride[0] + 1
	outW := (width+2*padding[1]-kernelW)/stride[1] + 1
	if outH <= 0 || outW <= 0 {
		return nil, fmt.Errorf("%w: kernel %dx%d larger than input %dx%d", ErrShapeMismatch, kernelH, kernelW, height, width)
	}

	return &Conv2D{
		inShape:    inShape.Clone(),
		outShape:   tensor.Shape{filters, outH, outW},
		filters:    filters,
		kernelSize: [2]int{kernelH, kernelW},
		stride:     stride,
		padding:    padding,
		border:     border,
		activation: activation,
		params:     newParams(tensor.Shape{filters, channels, kernelH, kernelW}, tensor.Shape{filters}),
	}, nil
}

// Name returns "Convolution2D".
func (c *Conv2D) Name() string { return "Convolution2D" }

// Forward performs the convolution for a batch [N, C, H, W].
func (c *Conv2D) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	shape := x.Shape()
	if len(shape) != 4 || !tensor.Shape(shape[1:]).Equal(c.inShape) {
		return nil, fmt.Errorf("%w: conv2d expects [N %v], got %v", ErrShapeMismatch, c.inShape, shape)
	}

	n := shape[0]
	channels, height, width := c.inShape[0], c.inShape[1], c.inShape[2]
	outH, outW := c.outShape[1], c.outShape[2]
	kh, kw := c.kernelSize[0], c.kernelSize[1]

	in := x.Data()
	w := c.params.Weights.Tensor().Data()
	b := c.params.Biases.Tensor().Data()

	out := tensor.Zeros(append(tensor.Shape{n}, c.outShape...))
	od := out.Data()

	for s := 0; s < n; s++ {
		sample := in[s*channels*height*width : (s+1)*channels*height*width]
		for f := 0; f < c.filters; f++ {
			base := ((s * c.filters) + f) * outH * outW
			for i := 0; i < outH; i++ {
				for j := 0; j < outW; j++ {
					sum := b[f]
					for ch := 0; ch < channels; ch++ {
						plane := sample[ch*height*width:]
						kernel := w[((f*channels)+ch)*kh*kw:]
						for u := 0; u < kh; u++ {
							row := i*c.stride[0] + u - c.padding[0]
							if row < 0 || row >= height {
								continue
							}
							for v := 0; v < kw; v++ {
								col := j*c.stride[1] + v - c.padding[1]
								if col < 0 || col >= width {
									continue
								}
								sum += plane[row*width+col] * kernel[(kh-1-u)*kw+(kw-1-v)]
							}
						}
					}
					od[base+i*outW+j] = sum
				}
			}
		}
	}

	return applyActivation(c.activation, out)
}

// Params returns the convolution weights and biases.
func (c *Conv2D) Params() *Params { return c.params }

// InputShape returns [channels, height, width].
func (c *Conv2D) InputShape() tensor.Shape { return c.inShape }

// OutputShape returns [filters, out_h, out_w].
func (c *Conv2D) OutputShape() tensor.Shape { return c.outShape }

// Filters returns the number of output channels.
func (c *Conv2D) Filters() int { return c.filters }

// KernelSize returns the kernel size [height, width].
func (c *Conv2D) KernelSize() [2]int { return c.kernelSize }

// String returns a string representation of the layer.
func (c *Conv2D) String() string {
	return fmt.Sprintf("Convolution2D(filters=%d, kernel_size=(%d, %d), subsample=(%d, %d), border=%s, activation=%s)",
		c.filters, c.kernelSize[0], c.kernelSize[1], c.stride[0], c.stride[1], c.border, activationLabel(c.activation))
}

func activationLabel(name string) string {
	if name == "" {
		return ActivationLinear
	}
	return name
}
