// Package glyph draws shaped text onto images. Shaping is delegated to
// go-text/typesetting (HarfBuzz) and outlines are rasterised with
// golang.org/x/image, so variation sequences are resolved the same way a
// full text stack resolves them.
package glyph

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/flopp/go-findfont"
	gotext "github.com/go-text/typesetting/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

const DefaultFontName = "Go Regular"

var embedded = map[string][]byte{
	DefaultFontName: goregular.TTF,
	"Go Mono":       gomono.TTF,
}

// Font is a parsed TrueType/OpenType font. It is safe for concurrent use;
// per-call state is created by Shape and Draw.
type Font struct {
	name   string
	data   []byte
	sfnt   *sfnt.Font
	shaper *gotext.Font
}

func Parse(name string, data []byte) (*Font, error) {
	s, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
	}

	face, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load font %s for shaping: %w", name, err)
	}

	if name == "" {
		if family, err := s.Name(nil, sfnt.NameIDFamily); err == nil {
			name = family
		}
	}

	return &Font{
		name:   name,
		data:   data,
		sfnt:   s,
		shaper: face.Font,
	}, nil
}

func Default() *Font {
	f, err := Parse(DefaultFontName, goregular.TTF)
	if err != nil {
		panic(err)
	}
	return f
}

// Open resolves ref as an embedded font name, a file path, or a font file
// name looked up in the system font directories, in that order. An empty
// ref yields the default font.
func Open(ref string) (*Font, error) {
	if ref == "" {
		return Default(), nil
	}

	if data, ok := embedded[ref]; ok {
		return Parse(ref, data)
	}

	path := ref
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		found, err := findfont.Find(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to find font %s: %w", ref, err)
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}

	return Parse("", data)
}

func (f *Font) Name() string {
	return f.name
}

// Data returns the raw font file, for engines that load fonts themselves.
func (f *Font) Data() []byte {
	return f.data
}
