package material

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/uniforms"
	"github.com/gogpu/gputypes"
)

// Texture is a CPU-side RGBA image plus the GPU texture it is uploaded to. The texture owns its
// unit index; a texture without an explicit unit takes the unit of the first material slot it is
// bound through.
type Texture struct {
	name    string
	image   common.ImageData
	sampler gputypes.SamplerDescriptor
	mipmaps bool
	unit    int

	handle backend.TextureHandle
	dirty  bool
}

var _ uniforms.Texture = &Texture{}

// NewTexture creates a Texture holding img. The texture is dirty until its first upload.
//
// Parameters:
//   - name: the debug label
//   - img: the RGBA pixels
//   - options: variadic list of TextureBuilderOption functions
//
// Returns:
//   - *Texture: a new texture
func NewTexture(name string, img common.ImageData, options ...TextureBuilderOption) *Texture {
	t := newTexture(name, options)
	t.image = img
	return t
}

// LoadTexture decodes an image file into a Texture. Mipmapped textures are resized to
// power-of-two dimensions.
//
// Parameters:
//   - path: the image file path (PNG, JPEG, GIF or BMP)
//   - options: variadic list of TextureBuilderOption functions
//
// Returns:
//   - *Texture: the loaded texture
//   - error: an error if the file cannot be read or decoded
func LoadTexture(path string, options ...TextureBuilderOption) (*Texture, error) {
	img, err := common.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("load texture %s: %w", path, err)
	}
	t := newTexture(path, options)
	t.image = common.StageImage(img, t.mipmaps)
	return t, nil
}

func newTexture(name string, options []TextureBuilderOption) *Texture {
	t := &Texture{
		name:    name,
		sampler: gputypes.LinearSamplerDescriptor(),
		unit:    -1,
		dirty:   true,
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// Name returns the debug label of the texture.
func (t *Texture) Name() string {
	return t.name
}

// Image returns the CPU-side pixels.
func (t *Texture) Image() common.ImageData {
	return t.image
}

// SetImage replaces the pixels and marks the texture for re-upload.
func (t *Texture) SetImage(img common.ImageData) {
	t.image = img
	t.dirty = true
}

func (t *Texture) Handle() backend.TextureHandle {
	return t.handle
}

// Unit returns the texture unit, or -1 before one is assigned.
func (t *Texture) Unit() int {
	return t.unit
}

func (t *Texture) Dirty() bool {
	return t.dirty
}

func (t *Texture) claimUnit(unit int) {
	if t.unit < 0 {
		t.unit = unit
	}
}

// Upload creates the GPU texture on first use and writes the pixels into it.
//
// Parameters:
//   - ctx: the graphics context
//
// Returns:
//   - error: an error if the texture could not be created or written
func (t *Texture) Upload(ctx backend.Context) error {
	if !t.handle.Valid() {
		h, err := ctx.CreateTexture(backend.TextureDescriptor{
			Label:   t.name,
			Width:   t.image.Width,
			Height:  t.image.Height,
			Sampler: t.sampler,
			Mipmaps: t.mipmaps,
		})
		if err != nil {
			return fmt.Errorf("upload texture %s: %w", t.name, err)
		}
		t.handle = h
	}
	if err := ctx.WriteTexture(t.handle, t.image); err != nil {
		return fmt.Errorf("upload texture %s: %w", t.name, err)
	}
	t.dirty = false
	return nil
}

// Release deletes the GPU texture. The pixels are kept, so a later Upload recreates it.
//
// Parameters:
//   - ctx: the graphics context that created the texture
//
// Returns:
//   - error: an error if the handle is stale
func (t *Texture) Release(ctx backend.Context) error {
	if !t.handle.Valid() {
		return nil
	}
	err := ctx.DeleteTexture(t.handle)
	t.handle = backend.TextureHandle{}
	t.dirty = true
	return err
}
