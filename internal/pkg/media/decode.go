package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// JPEGQuality is used when re-encoding images for the model backend.
const JPEGQuality = 95

// DefaultMaxPixels bounds width*height of a decoded image.
const DefaultMaxPixels = 50_000_000

// ErrTooManyPixels is returned for images whose header declares more than the allowed pixels.
var ErrTooManyPixels = errors.New("media: image dimensions exceed limit")

// DecodeRGB decodes an image and flattens it to opaque RGB. The header is
// checked against maxPixels before any pixel data is decoded; maxPixels <= 0
// means DefaultMaxPixels.
func DecodeRGB(data []byte, maxPixels int) (image.Image, string, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image header: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return toRGB(img), format, nil
}

// toRGB draws img over an opaque black canvas, dropping any alpha channel.
func toRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// EncodeJPEG encodes img for upload to the model backend.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Normalize decodes arbitrary image bytes and re-encodes them as RGB JPEG.
func Normalize(data []byte, maxPixels int) ([]byte, image.Image, error) {
	img, _, err := DecodeRGB(data, maxPixels)
	if err != nil {
		return nil, nil, err
	}
	out, err := EncodeJPEG(img)
	if err != nil {
		return nil, nil, err
	}
	return out, img, nil
}
