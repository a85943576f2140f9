package imaging

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	xdraw "golang.org/x/image/draw"

	apperrors "harvestguard/internal/errors"
)

// Target resolution every image is resized to before scoring. Both models
// were trained against this shape; changing it invalidates any calibration
// snapshot computed against the old shape.
const (
	TargetWidth  = 128
	TargetHeight = 128
)

// Normalizer decodes raw image bytes into a fixed-size, fixed-channel
// tensor with values in [0,1]. It is stateless and safe for concurrent use.
type Normalizer struct {
	width  int
	height int
}

// NewNormalizer creates a normalizer targeting the standard model resolution.
func NewNormalizer() *Normalizer {
	return &Normalizer{width: TargetWidth, height: TargetHeight}
}

// Decode decodes raw bytes into an image. Unreadable or corrupt input
// yields a decode error, recovered per item by batch callers.
func (n *Normalizer) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to decode image", err)
	}
	return img, nil
}

// NormalizeBytes decodes, resizes and scales raw image bytes.
func (n *Normalizer) NormalizeBytes(data []byte) (*Tensor, error) {
	img, err := n.Decode(data)
	if err != nil {
		return nil, err
	}
	return n.NormalizeImage(img), nil
}

// NormalizeReader is NormalizeBytes over a stream.
func (n *Normalizer) NormalizeReader(r io.Reader) (*Tensor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to read image data", err)
	}
	return n.NormalizeBytes(data)
}

// NormalizeImage converts a decoded image into the model tensor: RGB,
// target resolution, values in [0,1]. CatmullRom resampling has a fixed
// kernel, so the output is deterministic for identical input.
func (n *Normalizer) NormalizeImage(img image.Image) *Tensor {
	rgba := n.ResizeRGBA(img)

	t := NewTensor(n.width, n.height)
	plane := n.width * n.height
	for y := 0; y < n.height; y++ {
		for x := 0; x < n.width; x++ {
			off := rgba.PixOffset(x, y)
			idx := y*n.width + x
			t.Data[idx] = float64(rgba.Pix[off]) / 255.0
			t.Data[plane+idx] = float64(rgba.Pix[off+1]) / 255.0
			t.Data[2*plane+idx] = float64(rgba.Pix[off+2]) / 255.0
		}
	}
	return t
}

// ResizeRGBA resizes an image to the target resolution as RGBA. Used by
// normalization and by curation when writing canonical reference samples.
func (n *Normalizer) ResizeRGBA(img image.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, n.width, n.height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}
