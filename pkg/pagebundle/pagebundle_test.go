package pagebundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

func TestEncodeDecode(t *testing.T) {
	b := New([]string{"page one", "page two"})
	payload, err := b.Encode()
	require.NoError(t, err)

	got, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, 2, got.PageCount())
	assert.Equal(t, []string{"page one", "page two"}, got.Pages)
}

func TestDecodeRejectsInvalidContainers(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not JSON", "%PDF-1.4 binary junk"},
		{"empty payload", ""},
		{"wrong shape", `["page one"]`},
		{"unknown fields", `{"version":1,"pages":[],"extra":true}`},
		{"unsupported version", `{"version":2,"pages":["p"]}`},
		{"missing pages", `{"version":1}`},
		{"trailing data", `{"version":1,"pages":[]}{"version":1,"pages":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.payload))
			assert.ErrorIs(t, err, vaulterrors.ErrParse)
		})
	}
}

func TestDecodeAllowsEmptyPageSequence(t *testing.T) {
	got, err := Decode([]byte(`{"version":1,"pages":[]}`))
	require.NoError(t, err)
	assert.Equal(t, 0, got.PageCount())
}

func TestMergePreservesOrder(t *testing.T) {
	a := New([]string{"a1", "a2"})
	b := New([]string{"b1", "b2", "b3"})

	merged := Merge(a, b)
	assert.Equal(t, []string{"a1", "a2", "b1", "b2", "b3"}, merged.Pages)

	reversed := Merge(b, a)
	assert.Equal(t, []string{"b1", "b2", "b3", "a1", "a2"}, reversed.Pages)

	// The same bundle may appear more than once.
	doubled := Merge(a, a)
	assert.Equal(t, []string{"a1", "a2", "a1", "a2"}, doubled.Pages)
}
