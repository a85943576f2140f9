package imaging

import (
	"crypto/md5"
	"encoding/hex"
	"image"
	"image/draw"
)

// Fingerprint returns a deterministic hash of the decoded pixel data,
// used only for duplicate detection during corpus curation. It is not a
// cryptographic identity and is never persisted.
func Fingerprint(img image.Image) string {
	rgba, ok := img.(*image.RGBA)
	if !ok {
		b := img.Bounds()
		rgba = image.NewRGBA(b)
		draw.Draw(rgba, b, img, b.Min, draw.Src)
	}
	sum := md5.Sum(rgba.Pix)
	return hex.EncodeToString(sum[:])
}
