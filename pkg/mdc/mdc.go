// Package mdc renders Manuel de Codage (MdC) ASCII transliteration as
// Egyptological Unicode transliteration, e.g. "Htp-di-nsw" -> "ḥtp-dꞽ-nsw".
package mdc

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidInput is returned for characters outside the MdC transliteration alphabet
var ErrInvalidInput = errors.New("invalid MdC transliteration")

// capitalize marks the following sign as upper case
const capitalize = '*'

var signs = map[rune]rune{
	'A': 'ꜣ',
	'a': 'ꜥ',
	'i': 'ꞽ', // U+A7BD egyptological yod
	'H': 'ḥ',
	'x': 'ḫ',
	'X': 'ẖ',
	'S': 'š',
	'T': 'ṯ',
	'D': 'ḏ',
	'=': '⸗',
}

// letters and separators that pass through unchanged
const plain = "bdfghjkmnprstwyz-. "

// Decoder converts MdC strings
type Decoder struct {
	qKopf bool
}

// Option configures a Decoder
type Option func(*Decoder)

// WithQKopf renders q as ḳ (the default) or leaves it as q
func WithQKopf(enabled bool) Option {
	return func(d *Decoder) {
		d.qKopf = enabled
	}
}

// NewDecoder creates an MdC decoder
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{qKopf: true}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode converts input sign by sign; any unknown character fails the whole string
func (d *Decoder) Decode(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidInput)
	}

	var out strings.Builder
	upper := false
	for i, r := range input {
		if r == capitalize {
			upper = true
			continue
		}

		mapped, ok := d.sign(r)
		if !ok {
			return "", fmt.Errorf("%w: %q at offset %d in %q", ErrInvalidInput, r, i, input)
		}
		if upper {
			mapped = unicode.ToUpper(mapped)
			upper = false
		}
		out.WriteRune(mapped)
	}
	if upper {
		return "", fmt.Errorf("%w: trailing %q in %q", ErrInvalidInput, capitalize, input)
	}
	return out.String(), nil
}

func (d *Decoder) sign(r rune) (rune, bool) {
	if r == 'q' {
		if d.qKopf {
			return 'ḳ', true
		}
		return 'q', true
	}
	if mapped, ok := signs[r]; ok {
		return mapped, true
	}
	if strings.ContainsRune(plain, r) {
		return r, true
	}
	return 0, false
}
