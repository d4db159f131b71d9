package products

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Wedding Classic":      "wedding-classic",
		"  Floral Vintage XV ": "floral-vintage-xv",
		"XV Años":              "xv-aos",
		"Torta #1 (especial)":  "torta-1-especial",
		"snake_case-ok":        "snake_case-ok",
		"¡¿!":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestNeedsBackfill(t *testing.T) {
	empty, numeric, ok := "", "123", "torta-1"
	assert.True(t, needsBackfill(nil))
	assert.True(t, needsBackfill(&empty))
	assert.True(t, needsBackfill(&numeric))
	assert.False(t, needsBackfill(&ok))
}
