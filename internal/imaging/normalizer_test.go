package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestNormalizeBytes_ShapeAndRange(t *testing.T) {
	n := NewNormalizer()
	data := encodePNG(t, solidImage(200, 300, color.RGBA{200, 100, 50, 255}))

	tensor, err := n.NormalizeBytes(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tensor.Width != TargetWidth || tensor.Height != TargetHeight {
		t.Errorf("expected %dx%d tensor, got %dx%d", TargetWidth, TargetHeight, tensor.Width, tensor.Height)
	}
	if len(tensor.Data) != 3*TargetWidth*TargetHeight {
		t.Errorf("expected %d values, got %d", 3*TargetWidth*TargetHeight, len(tensor.Data))
	}
	for i, v := range tensor.Data {
		if v < 0 || v > 1 {
			t.Fatalf("value %d out of [0,1]: %f", i, v)
		}
	}
}

func TestNormalizeBytes_ChannelOrder(t *testing.T) {
	n := NewNormalizer()
	// Pure red input: R channel high, G and B near zero.
	data := encodePNG(t, solidImage(128, 128, color.RGBA{255, 0, 0, 255}))

	tensor, err := n.NormalizeBytes(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := tensor.At(0, 64, 64); got < 0.95 {
		t.Errorf("expected red channel ~1.0, got %f", got)
	}
	if got := tensor.At(1, 64, 64); got > 0.05 {
		t.Errorf("expected green channel ~0.0, got %f", got)
	}
	if got := tensor.At(2, 64, 64); got > 0.05 {
		t.Errorf("expected blue channel ~0.0, got %f", got)
	}
}

func TestNormalizeBytes_Deterministic(t *testing.T) {
	n := NewNormalizer()
	img := image.NewRGBA(image.Rect(0, 0, 97, 53))
	for y := 0; y < 53; y++ {
		for x := 0; x < 97; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 2), uint8(y * 4), uint8(x + y), 255})
		}
	}
	data := encodePNG(t, img)

	first, err := n.NormalizeBytes(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := n.NormalizeBytes(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range first.Data {
		if first.Data[i] != second.Data[i] {
			t.Fatalf("normalization not deterministic at %d: %v vs %v", i, first.Data[i], second.Data[i])
		}
	}
}

func TestNormalizeBytes_CorruptInput(t *testing.T) {
	n := NewNormalizer()
	if _, err := n.NormalizeBytes([]byte("definitely not an image")); err == nil {
		t.Fatal("expected decode error for corrupt input")
	}
}

func TestFingerprint(t *testing.T) {
	a := solidImage(64, 64, color.RGBA{10, 20, 30, 255})
	b := solidImage(64, 64, color.RGBA{10, 20, 30, 255})
	c := solidImage(64, 64, color.RGBA{11, 20, 30, 255})

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("identical pixel data should produce identical fingerprints")
	}
	if Fingerprint(a) == Fingerprint(c) {
		t.Error("different pixel data should produce different fingerprints")
	}
}
