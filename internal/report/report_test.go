package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// failingWriter fails once its accumulated input contains target,
// mirroring original_source/src/run_plan/report.rs's FailingWriter test
// fixture for exercising reporter write-error propagation.
type failingWriter struct {
	target string
	seen   bytes.Buffer
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.seen.Write(p)
	if bytes.Contains(w.seen.Bytes(), []byte(w.target)) {
		return 0, errors.New("simulated write failure")
	}
	return len(p), nil
}

func TestStartingWritesHostAndTitle(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := New(&stdout, &stderr)

	require.NoError(t, r.Starting("web1", "command: echo hi"))
	require.Contains(t, stdout.String(), "web1")
	require.Contains(t, stdout.String(), "command: echo hi")
}

func TestCompletedOmitsEmptySections(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := New(&stdout, &stderr)

	require.NoError(t, r.Completed("web1", "command: echo hi", nil, nil))
	require.NotContains(t, stdout.String(), "stdout:")
	require.Equal(t, "", stderr.String())
}

func TestCompletedIncludesNonEmptySections(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := New(&stdout, &stderr)

	require.NoError(t, r.Completed("web1", "command: echo hi", []byte("hi\n"), []byte("warn\n")))
	require.Contains(t, stdout.String(), "hi")
	require.Contains(t, stderr.String(), "warn")
}

func TestFailedWithExitCode(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := New(&stdout, &stderr)

	require.NoError(t, r.Failed("web1", "command: false", 1, nil, []byte("boom\n")))
	require.Contains(t, stdout.String(), "exit 1")
	require.Contains(t, stderr.String(), "boom")
}

func TestFailedWithNonExitError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := New(&stdout, &stderr)

	require.NoError(t, r.Failed("web1", "line_in_file: /etc/x", 0, errors.New("dial failed"), nil))
	require.Contains(t, stdout.String(), "dial failed")
}

func TestDisconnectedCleanVsWithError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := New(&stdout, &stderr)

	require.NoError(t, r.Disconnected("web1", nil))
	require.NoError(t, r.Disconnected("web2", errors.New("connection reset")))

	require.Contains(t, stdout.String(), "web1] disconnected\n")
	require.Contains(t, stdout.String(), "web2] disconnected: connection reset")
}

func TestStartingPropagatesWriteError(t *testing.T) {
	fw := &failingWriter{target: "starting"}
	r := New(fw, &bytes.Buffer{})

	err := r.Starting("web1", "command: echo hi")
	require.Error(t, err)
}
