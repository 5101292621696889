package stdio

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	assert.Equal(t, Endpoint{Kind: InheritStdin}, Stdin())
	assert.Equal(t, Endpoint{Kind: InheritStdout}, Stdout())
	assert.Equal(t, Endpoint{Kind: InheritStderr}, Stderr())
	assert.Equal(t, Endpoint{Kind: Redirect, Path: "out.txt"}, RedirectTo("out.txt"))
}

func TestPipeEnd(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	e := PipeEnd(w)
	assert.Equal(t, Pipe, e.Kind)
	assert.Same(t, w, e.File)
}

func TestValidateStdin(t *testing.T) {
	cases := []struct {
		name    string
		e       Endpoint
		wantErr bool
	}{
		{"inherit stdin ok", Stdin(), false},
		{"redirect ok", RedirectTo("in.txt"), false},
		{"inherit stdout rejected", Endpoint{Kind: InheritStdout}, true},
		{"inherit stderr rejected", Endpoint{Kind: InheritStderr}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateStdin(tc.e)
			if tc.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidEndpoint))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateStdout(t *testing.T) {
	cases := []struct {
		name    string
		e       Endpoint
		wantErr bool
	}{
		{"inherit stdout ok", Stdout(), false},
		{"redirect ok", RedirectTo("out.txt"), false},
		{"inherit stdin rejected", Endpoint{Kind: InheritStdin}, true},
		{"inherit stderr rejected", Endpoint{Kind: InheritStderr}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateStdout(tc.e)
			if tc.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidEndpoint))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "InheritStdin", InheritStdin.String())
	assert.Equal(t, "Pipe", Pipe.String())
	assert.Equal(t, "Unknown", Kind(99).String())
}
