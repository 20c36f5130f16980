package labels

import (
	"errors"
	"fmt"

	"github.com/menta2k/snipper/pkg/gardiner"
	"github.com/menta2k/snipper/pkg/mdc"
	"github.com/menta2k/snipper/pkg/types"
)

var (
	// ErrLabelDecode is returned when a category name cannot be decoded for its type
	ErrLabelDecode = errors.New("label decode failed")

	// ErrUnknownType is a configuration error: no strategy exists for the type
	ErrUnknownType = errors.New("unknown artifact type")
)

// Decoder turns a raw category name into display text
type Decoder interface {
	Decode(input string) (string, error)
}

// DecoderFunc adapts a plain function to Decoder
type DecoderFunc func(input string) (string, error)

func (f DecoderFunc) Decode(input string) (string, error) {
	return f(input)
}

// Identity passes category names through unchanged
var Identity = DecoderFunc(func(input string) (string, error) {
	return input, nil
})

// Resolver maps (category name, artifact type) to a display label
type Resolver struct {
	strategies map[types.ArtifactType]Decoder
}

// New creates a Resolver using the built-in Gardiner and MdC decoders
func New() *Resolver {
	return NewWithDecoders(gardiner.NewDecoder(), mdc.NewDecoder())
}

// NewWithDecoders creates a Resolver with custom glyph and transliteration decoders
func NewWithDecoders(glyph, translit Decoder) *Resolver {
	return &Resolver{
		strategies: map[types.ArtifactType]Decoder{
			types.Paleography: glyph,
			types.Orthography: translit,
			types.Iconography: Identity,
		},
	}
}

// Supports reports whether t has a decoding strategy
func (r *Resolver) Supports(t types.ArtifactType) bool {
	_, ok := r.strategies[t]
	return ok
}

// Resolve decodes name according to t
func (r *Resolver) Resolve(name string, t types.ArtifactType) (string, error) {
	decoder, ok := r.strategies[t]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, t)
	}

	label, err := decoder.Decode(name)
	if err != nil {
		return "", fmt.Errorf("%w: category %q as %s: %w", ErrLabelDecode, name, t, err)
	}
	return label, nil
}
