package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Decoder is implemented by the toml and yaml stream decoders.
type Decoder interface {
	Decode(v any) error
}

// DecoderFunc creates a Decoder reading from r.
type DecoderFunc func(r io.Reader) Decoder

// NewDecoderFunc adapts a typed decoder constructor to a DecoderFunc.
func NewDecoderFunc[T Decoder](f func(r io.Reader) T) DecoderFunc {
	return func(r io.Reader) Decoder { return f(r) }
}

// TOML decodes strictly: unknown keys are an error.
var TOML = NewDecoderFunc(func(r io.Reader) *toml.Decoder {
	return toml.NewDecoder(r).DisallowUnknownFields()
})

// YAML decodes strictly: unknown keys are an error.
var YAML = NewDecoderFunc(func(r io.Reader) *yaml.Decoder {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	return d
})

// DecoderFor picks the decoder for a file by its extension.
//
// Parameters:
//   - filename: the file to decode
//
// Returns:
//   - DecoderFunc: TOML for ".toml", YAML for ".yaml" and ".yml"
//   - error: an error for any other extension
func DecoderFor(filename string) (DecoderFunc, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return nil, fmt.Errorf("config: unsupported file type %q", filepath.Ext(filename))
}

// Open decodes the file at filename into v.
func Open(v any, filename string, f DecoderFunc) error {
	fp, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	return Read(v, bufio.NewReader(fp), f)
}

// Read decodes reader into v. An empty stream leaves v untouched.
func Read(v any, reader io.Reader, f DecoderFunc) error {
	if err := f(reader).Decode(v); err != nil && err != io.EOF {
		return err
	}
	return nil
}
