package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/siren.report/internal/monitoring"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "siren dev"), out)
}

func TestInvalidLogLevel(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--log-level", "loud", "version"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestSimulateThenAnalyze(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "pass.wav")

	out, err := execute(t, "simulate", wav, "--noise", "0", "--duration", "10s")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+wav)

	info, err := os.Stat(wav)
	require.NoError(t, err)
	// 44-byte header plus 16-bit mono samples at 48 kHz.
	assert.InDelta(t, 44+10*48000*2, info.Size(), 64)

	png := filepath.Join(dir, "pass.png")
	html := filepath.Join(dir, "pass.html")
	out, err = execute(t, "analyze", wav, "--units", "mps", "--plot", png, "--html", html)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Greater(t, len(lines), 1, "expected refit lines before the final summary")
	final := lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(final, "final: "), final)
	assert.Contains(t, final, " m/s")
	assert.NotContains(t, final, "high=0")

	for _, p := range []string{png, html} {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.Greater(t, info.Size(), int64(0), p)
	}
}

func TestAnalyzeQuiet(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "short.wav")
	_, err := execute(t, "simulate", wav, "--duration", "2s", "--t0", "1")
	require.NoError(t, err)

	out, err := execute(t, "analyze", wav, "--quiet")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"), out)
	assert.True(t, strings.HasPrefix(out, "final: "), out)
}

func TestAnalyzeErrors(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "short.wav")
	_, err := execute(t, "simulate", wav, "--duration", "1s")
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file", []string{"analyze", filepath.Join(dir, "nope.wav")}, "no such file"},
		{"unsupported format", []string{"analyze", filepath.Join(dir, "clip.ogg")}, "unsupported"},
		{"bad units", []string{"analyze", wav, "--units", "knots"}, "invalid units"},
		{"bad hop", []string{"analyze", wav, "--hop", "0"}, "hop size"},
		{"bad config", []string{"analyze", wav, "--config", filepath.Join(dir, "tuning.yaml")}, ".json"},
		{"no args", []string{"analyze"}, "accepts 1 arg"},
		{"plot outside allowed dirs", []string{"analyze", wav, "--plot", "/proc/pass.png"}, "outside allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSimulateErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "simulate", filepath.Join(dir, "a.wav"), "--units", "knots")
	assert.ErrorContains(t, err, "invalid units")

	_, err = execute(t, "simulate", filepath.Join(dir, "b.wav"), "--duration", "0s")
	assert.ErrorContains(t, err, "duration must be positive")

	_, err = execute(t, "simulate", "/proc/pass.wav")
	assert.ErrorContains(t, err, "outside allowed")
}
