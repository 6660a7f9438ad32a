package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Electronics", "electronics"},
		{"Home & Garden", "home-garden"},
		{"Rose Serenity", "rose-serenity"},
		{"  Midnight   Oud  ", "midnight-oud"},
		{"Crème Brûlée", "creme-brulee"},
		{"already-slugged_value", "already-slugged_value"},
		{"Eau de Parfum -- 50ml!", "eau-de-parfum-50ml"},
		{"_Oud_", "oud"},
		{"-- _Amber Rose_ --", "amber-rose"},
		{"snake_case_name", "snake_case_name"},
		{"日本", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.in))
		})
	}
}
