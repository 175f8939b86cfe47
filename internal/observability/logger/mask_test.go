package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"":                      "",
		"Ann.Smith@Example.com": "a…@e….com",
		"a@b.io":                "a@b.io",
		"abc":                   "***",
		"noatsign":              "n…n",
		"@example.com":          "@…m",
	}
	for in, want := range cases {
		assert.Equal(t, want, MaskEmail(in), in)
	}
}

func TestEmailField(t *testing.T) {
	f := Email("ann@example.com")
	assert.Equal(t, "email", f.Key)
	assert.Equal(t, "a…@e….com", f.String)
}
