package constraint

import (
	"slices"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/catalog"
)

// Filter answers legality questions against an immutable catalog table.
// The empty string stands for "no selection" on either side.
type Filter struct {
	table *catalog.Table
	union []string
}

// New creates a Filter over tbl. The table must not change afterwards.
func New(tbl *catalog.Table) *Filter {
	seen := make(map[string]bool)
	var union []string
	for _, c := range tbl.Codecs() {
		for _, ext := range c.Extensions {
			if !seen[ext] {
				seen[ext] = true
				union = append(union, ext)
			}
		}
	}
	return &Filter{table: tbl, union: union}
}

// Table returns the catalog the filter was built from.
func (f *Filter) Table() *catalog.Table {
	return f.table
}

// LegalExtensions returns the extensions permitted for codecID. With no codec
// it returns the de-duplicated union of every codec's extensions in
// first-appearance order. An unknown codec permits nothing.
func (f *Filter) LegalExtensions(codecID string) []string {
	if codecID == "" {
		return slices.Clone(f.union)
	}
	c, ok := f.table.Codec(codecID)
	if !ok {
		return []string{}
	}
	return c.Extensions
}

// LegalCodecs returns the codecs that can be muxed into ext, or every codec
// when ext is empty.
func (f *Filter) LegalCodecs(ext string) []catalog.Codec {
	all := f.table.Codecs()
	if ext == "" {
		return all
	}
	out := make([]catalog.Codec, 0, len(all))
	for _, c := range all {
		if c.Supports(ext) {
			out = append(out, c)
		}
	}
	return out
}

// Allowed reports whether the pair is consistent. A pair with either side
// unset is always consistent.
func (f *Filter) Allowed(codecID, ext string) bool {
	if codecID == "" || ext == "" {
		return true
	}
	return slices.Contains(f.LegalExtensions(codecID), ext)
}

// Reconcile returns the pair with any side the other no longer permits
// cleared. The extension is checked first and yields: an inconsistent pair
// loses its extension, which widens the legal codec set back to every codec,
// so the codec check that follows only clears ids the table does not know.
func (f *Filter) Reconcile(codecID, ext string) (string, string) {
	if codecID != "" && ext != "" && !slices.Contains(f.LegalExtensions(codecID), ext) {
		ext = ""
	}

	if codecID != "" && !slices.ContainsFunc(f.LegalCodecs(ext), func(c catalog.Codec) bool {
		return c.ID == codecID
	}) {
		codecID = ""
	}

	return codecID, ext
}
