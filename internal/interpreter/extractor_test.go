package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCountry(t *testing.T) {
	tests := []struct {
		text    string
		want    string
		wantHit bool
	}{
		{"sales in france", "France", true},
		{"sales in the uk", "United Kingdom", true},
		{"revenue in united kingdom", "United Kingdom", true},
		{"sales in the united kingdom", "United Kingdom", true},
		{"what were sales in usa", "USA", true},
		{"revenue in united states", "USA", true},
		{"sales in france last year", "France", true},
		{"sales in ireland", "EIRE", true},
		{"sales in spain", "Spain", true},
		{"sales in saudi arabia", "Saudi Arabia", true},
		{"Sales In Germany", "Germany", true},
		{"sales in 2011", "", false},
		{"sales in the", "", false},
		{"total sales", "", false},
		{"sales info", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ExtractCountry(tt.text)
			assert.Equal(t, tt.wantHit, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractLimit(t *testing.T) {
	tests := []struct {
		text string
		def  int
		want int
	}{
		{"show top 3 customers", 5, 3},
		{"top customers", 5, 5},
		{"top 3 or 4 customers", 5, 3},
		{"top -3 customers", 5, -3},
		{"top-3 customers", 5, 3},
		{"-2 customers", 5, -2},
		{"customer12", 5, 12},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ExtractLimit(tt.text, tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractLimit_Overflow(t *testing.T) {
	_, err := ExtractLimit("top 99999999999999999999999 customers", 5)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}
