package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "single line",
			text: "log:",
			want: "  log:",
		},
		{
			name: "blank lines are left alone",
			text: "log:\n\n  level: warn",
			want: "  log:\n\n    level: warn",
		},
		{
			name: "whitespace only",
			text: "  ",
			want: "  ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Indent(tt.text, "  "))
		})
	}
}
