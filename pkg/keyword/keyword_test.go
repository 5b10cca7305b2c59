package keyword_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ouagalab/fasotour/pkg/keyword"
)

func TestSearch(t *testing.T) {
	lines := []string{
		"Festival FESPACO à Ouagadougou",
		"Cascade de Banfora",
	}

	tests := []struct {
		name  string
		query string
		max   int
		want  []string
	}{
		{
			name:  "token match is case-insensitive substring",
			query: "banfora cascade",
			max:   5,
			want:  []string{"Cascade de Banfora"},
		},
		{
			name:  "first-encountered order",
			query: "ouagadougou banfora",
			max:   5,
			want:  []string{"Festival FESPACO à Ouagadougou", "Cascade de Banfora"},
		},
		{
			name:  "max results cap",
			query: "ouagadougou banfora",
			max:   1,
			want:  []string{"Festival FESPACO à Ouagadougou"},
		},
		{
			name:  "short tokens are ignored",
			query: "de à",
			max:   5,
			want:  nil,
		},
		{
			name:  "no match",
			query: "plage océan",
			max:   5,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keyword.Search(tt.query, lines, tt.max))
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"banfora", "cascade"}, keyword.Tokenize("Banfora cascade!"))
	assert.Equal(t, []string{"fespaco", "ouagadougou"}, keyword.Tokenize("FESPACO à Ouagadougou"))
	assert.Empty(t, keyword.Tokenize("à de le"))
}
