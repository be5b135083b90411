package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"bare", "10.1038/nature12373", "10.1038/nature12373"},
		{"https prefix", "https://doi.org/10.1038/nature12373", "10.1038/nature12373"},
		{"http prefix", "http://doi.org/10.1038/Nature12373", "10.1038/nature12373"},
		{"dx prefix", "https://dx.doi.org/10.1/X", "10.1/x"},
		{"doi scheme", "doi:10.1/X", "10.1/x"},
		{"whitespace", "  10.1/X \n", "10.1/x"},
		{"uppercase", "10.1234/ABC.DEF", "10.1234/abc.def"},
		{"uppercase prefix", "HTTPS://DOI.ORG/10.1/X", "10.1/x"},
		{"uppercase scheme", "DOI:10.1/X", "10.1/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDOI(tt.input))
		})
	}
}

func TestNormalizeDOI_EqualityContract(t *testing.T) {
	// Two DOIs denote the same identifier iff they are equal after the
	// transform.
	variants := []string{
		"10.1/X",
		"https://doi.org/10.1/x",
		"doi:10.1/X ",
		"http://dx.doi.org/10.1/X",
		"HTTPS://DOI.ORG/10.1/X",
	}
	for _, v := range variants {
		assert.Equal(t, "10.1/x", NormalizeDOI(v), v)
	}
}

func TestArticle_HasSource(t *testing.T) {
	a := &Article{Sources: []string{"OpenAlex", "Crossref"}}

	assert.True(t, a.HasSource("OpenAlex"))
	assert.True(t, a.HasSource("Crossref"))
	assert.False(t, a.HasSource("arXiv"))
	assert.False(t, a.HasSource("openalex"))
}

func TestAuthor_String(t *testing.T) {
	assert.Equal(t, "Jane Doe", Author{Name: "Jane Doe"}.String())
	assert.Equal(t, "Jane Doe (MIT)", Author{Name: "Jane Doe", Affiliation: "MIT"}.String())
}
