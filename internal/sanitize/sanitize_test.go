package sanitize_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/threeview/internal/sanitize"
)

func TestText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "Plain", input: "#ff0000", want: "#ff0000"},
		{name: "Trimmed", input: "  scene \n", want: "scene"},
		{name: "ANSI stripped", input: "\x1b[31mred\x1b[0m", want: "[31mred[0m"},
		{name: "NUL stripped", input: "a\x00b", want: "ab"},
		{name: "Empty", input: " \t ", wantErr: sanitize.ErrEmpty},
		{name: "Invalid UTF-8", input: "\xff", wantErr: sanitize.ErrInvalidUTF8},
		{name: "Too large", input: strings.Repeat("x", sanitize.DefaultMaxSize+1), wantErr: sanitize.ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitize.Text(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestText_EnvOverride(t *testing.T) {
	t.Setenv(sanitize.EnvMaxSize, "4")
	_, err := sanitize.Text("12345")
	assert.ErrorIs(t, err, sanitize.ErrTooLarge)

	got, err := sanitize.Text("1234")
	assert.NoError(t, err)
	assert.Equal(t, "1234", got)
}
