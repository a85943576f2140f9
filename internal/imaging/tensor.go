package imaging

// Tensor is a normalized, fixed-shape numeric view of an image: three
// channels in CHW order, values scaled to [0,1]. It is the only image
// representation the models consume. Treated as immutable once built.
type Tensor struct {
	Width  int
	Height int
	Data   []float64
}

// NewTensor allocates a zero tensor of the given dimensions.
func NewTensor(width, height int) *Tensor {
	return &Tensor{
		Width:  width,
		Height: height,
		Data:   make([]float64, 3*width*height),
	}
}

// At returns the value of channel c at (x, y).
func (t *Tensor) At(c, x, y int) float64 {
	return t.Data[c*t.Width*t.Height+y*t.Width+x]
}

// Set writes the value of channel c at (x, y).
func (t *Tensor) Set(c, x, y int, v float64) {
	t.Data[c*t.Width*t.Height+y*t.Width+x] = v
}

// SameShape reports whether two tensors have identical dimensions.
func (t *Tensor) SameShape(o *Tensor) bool {
	return o != nil && t.Width == o.Width && t.Height == o.Height && len(t.Data) == len(o.Data)
}

// Clone returns an independent copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	out := &Tensor{Width: t.Width, Height: t.Height, Data: make([]float64, len(t.Data))}
	copy(out.Data, t.Data)
	return out
}
