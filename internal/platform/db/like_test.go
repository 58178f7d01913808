package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{term: "agro", want: "%agro%"},
		{term: "urea 46%", want: `%urea 46\%%`},
		{term: "CT_2026", want: `%CT\_2026%`},
		{term: `a\b`, want: `%a\\b%`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContainsPattern(tt.term), tt.term)
	}
}
