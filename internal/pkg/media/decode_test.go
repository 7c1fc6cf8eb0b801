package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func createTestPNG(t *testing.T, fill color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestNormalize_PNGToJPEG(t *testing.T) {
	data := createTestPNG(t, color.NRGBA{R: 10, G: 120, B: 200, A: 128})

	out, img, err := Normalize(data, 0)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 8 {
		t.Errorf("Expected 16x8, got %v", img.Bounds())
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("Expected jpeg output, got %s", format)
	}
	_, _, _, a := img.At(0, 0).RGBA()
	if a != 0xffff {
		t.Errorf("Expected opaque pixels, got alpha %d", a)
	}
}

func TestDecodeRGB_Invalid(t *testing.T) {
	if _, _, err := DecodeRGB([]byte("not an image"), 0); err == nil {
		t.Error("Expected error for invalid image data")
	}
}

func TestDecodeRGB_PixelLimit(t *testing.T) {
	data := createTestPNG(t, color.White) // 16x8

	if _, _, err := DecodeRGB(data, 16*8); err != nil {
		t.Fatalf("Expected image at the limit to decode, got %v", err)
	}
	_, _, err := DecodeRGB(data, 16*8-1)
	if !errors.Is(err, ErrTooManyPixels) {
		t.Fatalf("Expected ErrTooManyPixels, got %v", err)
	}
}

func TestNormalize_RejectsHugeDimensions(t *testing.T) {
	// a flat 8000x8000 PNG compresses to a few KB but decodes to hundreds of MB
	img := image.NewGray(image.Rect(0, 0, 8000, 8000))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	if _, _, err := Normalize(buf.Bytes(), 0); !errors.Is(err, ErrTooManyPixels) {
		t.Fatalf("Expected ErrTooManyPixels with the default limit, got %v", err)
	}
}

func TestExtractMetadata_NoEXIF(t *testing.T) {
	if meta := ExtractMetadata(createTestPNG(t, color.White)); meta != nil {
		t.Errorf("Expected nil metadata, got %+v", meta)
	}
	if meta := ExtractMetadata(nil); meta != nil {
		t.Errorf("Expected nil metadata for empty input, got %+v", meta)
	}
}
