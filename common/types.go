// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// ImageData holds RGBA pixel data for a texture pending GPU upload.
type ImageData struct {
	// Pixels is the RGBA pixel data, 4 bytes per pixel in row-major order.
	Pixels []byte
	// Width is the width of the image in pixels.
	Width int
	// Height is the height of the image in pixels.
	Height int
}

// Empty reports whether the image carries no pixels.
func (d ImageData) Empty() bool {
	return d.Width == 0 || d.Height == 0 || len(d.Pixels) == 0
}

// DecodeImage decodes a PNG, JPEG or BMP stream into an image.Image.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - r: the encoded image stream
//
// Returns:
//   - image.Image: the decoded image
//   - error: error if decoding fails
func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// LoadImage opens and decodes the image file at path.
//
// Parameters:
//   - path: the image file path
//
// Returns:
//   - image.Image: the decoded image
//   - error: error if the file cannot be opened or decoded
func LoadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", path, err)
	}
	defer file.Close()

	img, err := DecodeImage(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// StageImage converts img into tightly packed RGBA pixels. When powerOfTwo is set and either
// dimension is not a power of two, the image is rescaled with a Catmull-Rom filter to the next
// power-of-two size so that mipmaps and repeat wrapping are valid on every GL profile.
//
// Parameters:
//   - img: the source image
//   - powerOfTwo: whether to round both dimensions up to a power of two
//
// Returns:
//   - ImageData: the staged pixel data
func StageImage(img image.Image, powerOfTwo bool) ImageData {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return ImageData{}
	}

	if powerOfTwo && (!IsPowerOfTwo(width) || !IsPowerOfTwo(height)) {
		width, height = NextPowerOfTwo(width), NextPowerOfTwo(height)
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
		return ImageData{Pixels: dst.Pix, Width: width, Height: height}
	}

	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == width*4 && bounds.Min == (image.Point{}) {
		return ImageData{Pixels: rgba.Pix, Width: width, Height: height}
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return ImageData{Pixels: dst.Pix, Width: width, Height: height}
}

// SolidImage builds a 1x1 image of the given RGBA color. Materials use it as the default
// texture bound to map slots that have no image.
//
// Parameters:
//   - r, g, b, a: the color channels
//
// Returns:
//   - ImageData: a single-pixel image
func SolidImage(r, g, b, a uint8) ImageData {
	return ImageData{Pixels: []byte{r, g, b, a}, Width: 1, Height: 1}
}
