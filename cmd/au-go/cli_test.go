package main

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"au-go/packages/runtime/src/config"
)

const hello = "testdata/hello.yaml"

func runCLI(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	err := run(&out, &errOut, args)
	return out.String(), errOut.String(), err
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"document", []string{"render", hello},
			`<html><head></head><body><main id="app"><h1>Hello world</h1><p>shown</p></main></body></html>` + "\n"},
		{"fragment", []string{"render", "-fragment", hello},
			`<h1>Hello world</h1><p>shown</p>` + "\n"},
		{"markers", []string{"render", "-fragment", "-keep-markers", hello},
			`<h1>Hello world</h1><!--au-start--><p>shown</p><!--au-end-->` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCLI(tt.args...)
			require.NoError(t, err)
			require.Equal(t, tt.want, out)
		})
	}
}

func TestRenderLogs(t *testing.T) {
	_, logs, err := runCLI("render", "-log-level", "debug", "-log-format", "json", hello)
	require.NoError(t, err)
	require.Contains(t, logs, `"msg":"config loaded"`)
	require.Contains(t, logs, `"msg":"rendered"`)

	_, logs, err = runCLI("render", hello)
	require.NoError(t, err)
	require.Empty(t, logs, "the file sets the level to error")
}

func TestCheck(t *testing.T) {
	out, _, err := runCLI("check", hello)
	require.NoError(t, err)
	require.Equal(t, "testdata/hello.yaml: ok (1 components, root hello)\n", out)

	_, _, err = runCLI("check", "testdata/broken.yaml")
	require.ErrorIs(t, err, config.ErrInvalid)

	_, _, err = runCLI("check", "testdata/missing.yaml")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"compile", hello}},
		{"unknown flag", []string{"render", "-color", hello}},
		{"no file", []string{"render"}},
		{"two files", []string{"check", hello, hello}},
		{"log level", []string{"render", "-log-level", "loud", hello}},
		{"log format", []string{"render", "-log-format", "xml", hello}},
		{"render flag on check", []string{"check", "-fragment", hello}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(tt.args...)
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr), "got %v", err)
			require.Equal(t, 2, exitErr.Code)
		})
	}
}

func TestHelp(t *testing.T) {
	out, _, err := runCLI("help")
	require.NoError(t, err)
	require.Contains(t, out, "Commands:")

	out, _, err = runCLI("render", "-h")
	require.NoError(t, err)
	require.Contains(t, out, "-keep-markers")
}

func TestDefaultLogFormat(t *testing.T) {
	require.Equal(t, "json", defaultLogFormat(&bytes.Buffer{}))
}
