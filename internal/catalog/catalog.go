package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Codec describes a video codec and the containers it can be muxed into.
type Codec struct {
	ID         string   `yaml:"id" json:"id"`
	Label      string   `yaml:"label" json:"label"`
	Encoder    string   `yaml:"encoder" json:"encoder"`
	Extensions []string `yaml:"extensions" json:"extensions"`
}

// Supports reports whether ext is one of the codec's containers.
func (c Codec) Supports(ext string) bool {
	return slices.Contains(c.Extensions, ext)
}

// PixelFormat describes an output pixel format.
type PixelFormat struct {
	ID     string `yaml:"id" json:"id"`
	Label  string `yaml:"label" json:"label"`
	Common bool   `yaml:"common" json:"common"`
}

// ErrInvalidCatalog is returned by Parse when the catalog data is inconsistent.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Table is the immutable codec and pixel format catalog.
type Table struct {
	codecs       []Codec
	pixelFormats []PixelFormat
	codecIndex   map[string]int
	formatIndex  map[string]int
}

type catalogFile struct {
	Codecs       []Codec       `yaml:"codecs"`
	PixelFormats []PixelFormat `yaml:"pixel_formats"`
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Table, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	t := &Table{
		codecIndex:  make(map[string]int, len(file.Codecs)),
		formatIndex: make(map[string]int, len(file.PixelFormats)),
	}

	for _, c := range file.Codecs {
		if c.ID == "" {
			return nil, fmt.Errorf("%w: codec with empty id", ErrInvalidCatalog)
		}
		if _, dup := t.codecIndex[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate codec %q", ErrInvalidCatalog, c.ID)
		}
		if c.Encoder == "" {
			return nil, fmt.Errorf("%w: codec %q has no encoder", ErrInvalidCatalog, c.ID)
		}
		if len(c.Extensions) == 0 {
			return nil, fmt.Errorf("%w: codec %q has no extensions", ErrInvalidCatalog, c.ID)
		}
		t.codecIndex[c.ID] = len(t.codecs)
		t.codecs = append(t.codecs, c)
	}

	for _, f := range file.PixelFormats {
		if f.ID == "" {
			return nil, fmt.Errorf("%w: pixel format with empty id", ErrInvalidCatalog)
		}
		if _, dup := t.formatIndex[f.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate pixel format %q", ErrInvalidCatalog, f.ID)
		}
		t.formatIndex[f.ID] = len(t.pixelFormats)
		t.pixelFormats = append(t.pixelFormats, f)
	}

	return t, nil
}

var (
	defaultTable *Table
	defaultOnce  sync.Once
)

// Default returns the embedded catalog, decoding it on first use.
// The embedded data is validated by tests, so a decode failure is fatal.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Parse(embeddedCatalog)
		if err != nil {
			logging.Fatal("Embedded catalog is invalid: %v", err)
		}
		logging.Debug("Catalog loaded: %d codecs, %d pixel formats", len(t.codecs), len(t.pixelFormats))
		defaultTable = t
	})
	return defaultTable
}

// Codecs returns every codec in table order.
func (t *Table) Codecs() []Codec {
	out := make([]Codec, len(t.codecs))
	for i, c := range t.codecs {
		out[i] = c.clone()
	}
	return out
}

// Codec looks up a codec by id.
func (t *Table) Codec(id string) (Codec, bool) {
	i, ok := t.codecIndex[id]
	if !ok {
		return Codec{}, false
	}
	return t.codecs[i].clone(), true
}

// PixelFormats returns the full pixel format list in catalog order.
func (t *Table) PixelFormats() []PixelFormat {
	return slices.Clone(t.pixelFormats)
}

// PixelFormat looks up a pixel format by id.
func (t *Table) PixelFormat(id string) (PixelFormat, bool) {
	i, ok := t.formatIndex[id]
	if !ok {
		return PixelFormat{}, false
	}
	return t.pixelFormats[i], true
}

// VisiblePixelFormats returns the list a picker should show. With showAll the
// full catalog is returned. Otherwise only the common subset is returned, with
// a selected uncommon format placed first so the current choice stays visible.
func (t *Table) VisiblePixelFormats(showAll bool, selected string) []PixelFormat {
	if showAll {
		return t.PixelFormats()
	}

	common := make([]PixelFormat, 0, len(t.pixelFormats))
	for _, f := range t.pixelFormats {
		if f.Common {
			common = append(common, f)
		}
	}

	if selected == "" {
		return common
	}
	if slices.ContainsFunc(common, func(f PixelFormat) bool { return f.ID == selected }) {
		return common
	}
	if f, ok := t.PixelFormat(selected); ok {
		return append([]PixelFormat{f}, common...)
	}
	return common
}

func (c Codec) clone() Codec {
	c.Extensions = slices.Clone(c.Extensions)
	return c
}
