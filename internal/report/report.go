// Package report implements the Reporter (spec §4.8): a lock-disciplined
// serializer of per-host progress onto an operator sink. One mutex
// guards both the stdout and stderr streams together so that no two
// hosts' outcomes can interleave, even though a single outcome writes
// to both streams. Grounded on original_source/src/run_plan/report.rs's
// Starting/Completed/Failed/Disconnected message shape and its
// lock-for-the-whole-outcome discipline.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Reporter serializes Starting/Completed/Failed/Disconnected messages
// for every host's pipeline onto shared stdout/stderr sinks.
type Reporter struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

// New builds a Reporter writing to stdout and stderr.
func New(stdout, stderr io.Writer) *Reporter {
	return &Reporter{stdout: stdout, stderr: stderr}
}

// Starting reports that host is about to run the action titled title
// (spec §4.5 step a, §4.8).
func (r *Reporter) Starting(host, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintf(r.stdout, "[%s] starting: %s\n", host, title)
	return err
}

// Completed reports a successful action outcome. Empty stdout/stderr
// sections are omitted (spec §4.8).
func (r *Reporter) Completed(host, title string, stdout, stderr []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := fmt.Fprintf(r.stdout, "[%s] completed: %s\n", host, title); err != nil {
		return err
	}
	if len(stdout) > 0 {
		if _, err := fmt.Fprintf(r.stdout, "  stdout:\n%s\n", indent(stdout)); err != nil {
			return err
		}
	}
	if len(stderr) > 0 {
		if _, err := fmt.Fprintf(r.stderr, "  stderr:\n%s\n", indent(stderr)); err != nil {
			return err
		}
	}
	return nil
}

// Failed reports a non-zero client-executor exit (exitCode, stderr) or,
// when err is non-nil, a non-exit-code failure such as a signing or
// transport error (spec §4.8, §7). Exactly one of err / exitCode is
// meaningful; pass err == nil for a plain exit-code failure.
func (r *Reporter) Failed(host, title string, exitCode int, err error, stderr []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reason := fmt.Sprintf("exit %d", exitCode)
	if err != nil {
		reason = err.Error()
	}
	if _, werr := fmt.Fprintf(r.stdout, "[%s] failed: %s (%s)\n", host, title, reason); werr != nil {
		return werr
	}
	if len(stderr) > 0 {
		if _, werr := fmt.Fprintf(r.stderr, "  stderr:\n%s\n", indent(stderr)); werr != nil {
			return werr
		}
	}
	return nil
}

// Disconnected reports the end of a host's pipeline, optionally carrying
// the error that ended it. A nil err means clean termination (spec
// §4.8, §8 "Disconnected with no error").
func (r *Reporter) Disconnected(host string, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err == nil {
		_, werr := fmt.Fprintf(r.stdout, "[%s] disconnected\n", host)
		return werr
	}
	_, werr := fmt.Fprintf(r.stdout, "[%s] disconnected: %v\n", host, err)
	return werr
}

func indent(data []byte) string {
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}
