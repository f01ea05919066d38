package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
)

// PlaceholderName is the storage name behind models.PlaceholderImagePath.
const PlaceholderName = "placeholder.jpg"

var placeholderColour = color.RGBA{R: 0x6F, G: 0x4E, B: 0x37, A: 0xFF}

// EnsurePlaceholder writes a plain placeholder JPEG when none is stored yet.
// An existing placeholder is left untouched.
func EnsurePlaceholder(ctx context.Context, s Storage) error {
	_, err := s.Read(ctx, PlaceholderName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrImageNotFound) {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: placeholderColour}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return fmt.Errorf("failed to encode placeholder: %w", err)
	}

	return s.Write(ctx, PlaceholderName, buf.Bytes())
}
