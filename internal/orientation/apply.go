package orientation

import (
	"image"

	"github.com/disintegration/imaging"
)

// Apply returns img corrected for c. Identity transforms return img itself.
func Apply(img image.Image, c Code) image.Image {
	return ApplyTransform(img, c.Transform())
}

// ApplyTransform rotates img clockwise by t.Rotation and then mirrors it
// horizontally if t.FlipHorizontal is set.
func ApplyTransform(img image.Image, t Transform) image.Image {
	if t.IsIdentity() {
		return img
	}

	var out *image.NRGBA
	switch t.Rotation {
	case 90:
		out = imaging.Rotate270(img)
	case -90, 270:
		out = imaging.Rotate90(img)
	case 180, -180:
		out = imaging.Rotate180(img)
	}

	if t.FlipHorizontal {
		if out != nil {
			return imaging.FlipH(out)
		}
		return imaging.FlipH(img)
	}
	if out == nil {
		return img
	}
	return out
}
