package visual

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Target dimensions of a featured image: a 16:9 cover at 1536x864.
const (
	TargetWidth  = 1536
	TargetHeight = 864
)

// Normalize decodes the image, center-crops it to a 16:9 region, scales it to
// exactly 1536x864, and re-encodes it as JPEG. Pure Go, no CGo.
func Normalize(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	crop := cropRect(img.Bounds())

	dst := image.NewRGBA(image.Rect(0, 0, TargetWidth, TargetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// cropRect computes the centered 16:9 region of the source bounds: width is
// cropped when the source is wider than 16:9, height otherwise.
func cropRect(bounds image.Rectangle) image.Rectangle {
	w := bounds.Dx()
	h := bounds.Dy()

	if w*TargetHeight > h*TargetWidth {
		// Wider than 16:9: crop width.
		cropW := h * TargetWidth / TargetHeight
		x0 := bounds.Min.X + (w-cropW)/2
		return image.Rect(x0, bounds.Min.Y, x0+cropW, bounds.Max.Y)
	}

	// Taller than (or exactly) 16:9: crop height.
	cropH := w * TargetHeight / TargetWidth
	y0 := bounds.Min.Y + (h-cropH)/2
	return image.Rect(bounds.Min.X, y0, bounds.Max.X, y0+cropH)
}
