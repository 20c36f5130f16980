// Package gardiner turns hyphen-delimited Gardiner sign-list codes
// (for example "A1-G17-Aa15") into Egyptian hieroglyph text.
//
// Each code is normalized to its Unicode character name, e.g. "G17" becomes
// "EGYPTIAN HIEROGLYPH G017" and "A14a" becomes "EGYPTIAN HIEROGLYPH A014A",
// and looked up in the Unicode name tables.
package gardiner

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/unicode/runenames"
)

var (
	// ErrMalformedCode is returned for items that are not of the form Xy00z
	ErrMalformedCode = errors.New("malformed gardiner code")

	// ErrUnknownSign is returned for well-formed codes with no Unicode glyph
	ErrUnknownSign = errors.New("unknown gardiner sign")
)

const namePrefix = "EGYPTIAN HIEROGLYPH "

// Egyptian Hieroglyphs and Egyptian Hieroglyph Format Controls blocks
const (
	blockStart rune = 0x13000
	blockEnd   rune = 0x1345F
)

var codePattern = regexp.MustCompile(`^([A-Za-z]{1,3})([0-9]{1,3})([a-z]+)?`)

var (
	indexOnce sync.Once
	index     map[string]rune
)

func signIndex() map[string]rune {
	indexOnce.Do(func() {
		index = make(map[string]rune, 1100)
		for r := blockStart; r <= blockEnd; r++ {
			name := runenames.Name(r)
			if strings.HasPrefix(name, namePrefix) {
				index[name] = r
			}
		}
	})
	return index
}

// Decoder converts Gardiner code strings to hieroglyphs
type Decoder struct{}

// NewDecoder creates a Gardiner decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Split breaks a hyphen-separated code sequence into single codes
func Split(input string) []string {
	return strings.Split(input, "-")
}

// Decode converts every hyphen-separated code in input to its glyph
func (d *Decoder) Decode(input string) (string, error) {
	var out strings.Builder
	for _, item := range Split(input) {
		r, err := Lookup(item)
		if err != nil {
			return "", err
		}
		out.WriteRune(r)
	}
	return out.String(), nil
}

// Lookup resolves a single code such as "G17" or "A14a"
func Lookup(code string) (rune, error) {
	name, err := UnicodeName(code)
	if err != nil {
		return 0, err
	}
	r, ok := signIndex()[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q (%s)", ErrUnknownSign, code, name)
	}
	return r, nil
}

// UnicodeName normalizes a code to the Unicode character name of its glyph
func UnicodeName(code string) (string, error) {
	m := codePattern.FindStringSubmatch(code)
	if m == nil {
		return "", fmt.Errorf("%w: %q, expected a code of format Xy00z", ErrMalformedCode, code)
	}
	category, glyph, variant := m[1], m[2], m[3]
	for len(glyph) < 3 {
		glyph = "0" + glyph
	}
	return strings.ToUpper(namePrefix + category + glyph + variant), nil
}
