// Package runner implements the plan runner (spec §4.6): one pipeline
// per host named by the plan, run concurrently, with unconditional
// failure isolation (a failing host never cancels the others). This
// differs deliberately from the teacher's internal/engine/executor.go,
// which cancels sibling work on first error by default; Sira's
// fleet-management domain requires every reachable host to get its
// attempt regardless of what happened elsewhere (see DESIGN.md).
package runner

import (
	"context"
	"sync"

	"github.com/sira-systems/sira/internal/crypto"
	"github.com/sira-systems/sira/internal/plan"
	"github.com/sira-systems/sira/internal/report"
	"github.com/sira-systems/sira/internal/transport"
)

// HostError pairs a host with the error its pipeline terminated with.
type HostError struct {
	Host string
	Err  error
}

// Run fans out one pipeline per host named by p (spec §4.6: "a host is
// named if any manifest lists it"), waits for all of them, and returns
// the (possibly empty) list of host failures. ctx is threaded through
// to every pipeline for cooperative cancellation (e.g. an operator
// interrupt); it does not make one host's failure cancel another's.
func Run(ctx context.Context, dialer transport.Dialer, signer *crypto.Signer, reporter *report.Reporter, p plan.Plan) []HostError {
	hosts := p.Hosts()
	results := make([]HostError, len(hosts))

	var wg sync.WaitGroup
	wg.Add(len(hosts))
	for i, host := range hosts {
		go func(i int, host string) {
			defer wg.Done()
			err := pipelineRun(ctx, dialer, signer, reporter, p, host)
			results[i] = HostError{Host: host, Err: err}
		}(i, host)
	}
	wg.Wait()

	var failures []HostError
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, r)
		}
	}
	return failures
}

// pipelineRun is a seam so tests can substitute a fake without
// importing the pipeline package's transport/crypto wiring.
var pipelineRun = defaultPipelineRun
