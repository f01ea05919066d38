package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// AverageColourHex decodes data and returns the mean colour of all pixels
// formatted as #RRGGBB. For animated GIFs only the first frame is used.
func AverageColourHex(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("error processing image: %w", err)
	}

	bounds := img.Bounds()
	pixels := uint64(bounds.Dx()) * uint64(bounds.Dy())
	if pixels == 0 {
		return "", fmt.Errorf("error processing image: empty image")
	}

	var totalR, totalG, totalB uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			totalR += uint64(c.R)
			totalG += uint64(c.G)
			totalB += uint64(c.B)
		}
	}

	return fmt.Sprintf("#%02X%02X%02X", totalR/pixels, totalG/pixels, totalB/pixels), nil
}
