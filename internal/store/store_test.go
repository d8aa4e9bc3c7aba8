package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageSkip(t *testing.T) {
	tests := []struct {
		name string
		page Page
		want int64
	}{
		{"first page", Page{Page: 1, Limit: 20}, 0},
		{"third page", Page{Page: 3, Limit: 20}, 40},
		{"zero page", Page{Page: 0, Limit: 20}, 0},
		{"no limit", Page{Page: 5}, 0},
		{"overflow saturates", Page{Page: 4611686018427387905, Limit: 4}, math.MaxInt64},
		{"largest exact", Page{Page: math.MaxInt64/4 + 1, Limit: 4}, (math.MaxInt64 / 4) * 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.page.Skip())
		})
	}
}
