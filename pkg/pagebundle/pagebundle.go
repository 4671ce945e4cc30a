// Package pagebundle implements the page container format documents
// are stored in: a JSON envelope holding an ordered page sequence.
// Merging bundles is pure concatenation; pages are never transformed.
package pagebundle

import (
	"bytes"
	"encoding/json"

	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

// Version is the current page container format version.
const Version = 1

// ContentType is the media type artifacts and bundles are served with.
const ContentType = "application/vnd.papervault.pages+json"

// Bundle is an ordered sequence of pages.
type Bundle struct {
	Version int      `json:"version"`
	Pages   []string `json:"pages"`
}

// New creates a bundle from pages.
func New(pages []string) *Bundle {
	return &Bundle{Version: Version, Pages: pages}
}

// PageCount returns the number of pages in the bundle.
func (b *Bundle) PageCount() int {
	return len(b.Pages)
}

// Encode serializes the bundle.
func (b *Bundle) Encode() ([]byte, error) {
	return json.Marshal(b)
}

// Decode parses a stored payload into its page sequence. Anything that
// is not a valid page container yields ErrParse.
func Decode(payload []byte) (*Bundle, error) {
	const op = "Decode"

	var b Bundle
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return nil, vaulterrors.Newf(op, vaulterrors.ErrParse, "%v", err)
	}
	if dec.More() {
		return nil, vaulterrors.New(op, vaulterrors.ErrParse, "trailing data after container")
	}
	if b.Version != Version {
		return nil, vaulterrors.Newf(op, vaulterrors.ErrParse,
			"unsupported container version %d", b.Version)
	}
	if b.Pages == nil {
		return nil, vaulterrors.New(op, vaulterrors.ErrParse, "container has no page sequence")
	}
	return &b, nil
}

// Merge concatenates bundles in argument order: all pages of the first,
// then all pages of the second, and so on.
func Merge(bundles ...*Bundle) *Bundle {
	total := 0
	for _, b := range bundles {
		total += len(b.Pages)
	}
	pages := make([]string, 0, total)
	for _, b := range bundles {
		pages = append(pages, b.Pages...)
	}
	return New(pages)
}
