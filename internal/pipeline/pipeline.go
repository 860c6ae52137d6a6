// Package pipeline implements the per-host state machine (spec §4.5):
// Dialing -> Connected -> RunningAction -> (RunningAction)* ->
// Disconnecting -> Terminal(Ok|Err). Grounded on the control flow
// described in original_source/src/run_plan/mod.rs, re-expressed as a
// straight-line Go function rather than an explicit state enum, the way
// the teacher's own worker loops (internal/engine, pre-transformation)
// favor direct control flow over a modeled state machine for a
// single-threaded sequential worker.
package pipeline

import (
	"context"
	"fmt"

	"github.com/sira-systems/sira/internal/action"
	"github.com/sira-systems/sira/internal/crypto"
	"github.com/sira-systems/sira/internal/plan"
	"github.com/sira-systems/sira/internal/report"
	"github.com/sira-systems/sira/internal/transport"
	sirerrors "github.com/sira-systems/sira/pkg/errors"
)

// signingKey is the fixed key name the control node signs actions with
// (spec §4.5 step c, §6: "reads manifest ... signs with action").
const signingKey = "action"

// Run drives one host's pipeline to completion: dial, iterate the
// plan's HostActions for host in order, sign and dispatch each, and
// disconnect. It returns the first fatal error encountered, or nil on
// clean completion (spec §4.5, §4.6).
func Run(ctx context.Context, dialer transport.Dialer, signer *crypto.Signer, reporter *report.Reporter, p plan.Plan, host string) error {
	client, err := dialer.Dial(ctx, host)
	if err != nil {
		dialErr := sirerrors.NewTransportError(host, "dial", err)
		if repErr := reporter.Disconnected(host, dialErr); repErr != nil {
			return sirerrors.NewReportError(host, repErr)
		}
		return dialErr
	}

	var pipelineErr error
	it := p.Iterate(host)
	for {
		ha, ok := it.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			pipelineErr = err
			break
		}
		if err := runAction(ctx, client, signer, reporter, ha); err != nil {
			pipelineErr = err
			break
		}
	}

	closeErr := client.Close()
	if repErr := reporter.Disconnected(host, pipelineErr); repErr != nil && pipelineErr == nil {
		pipelineErr = sirerrors.NewReportError(host, repErr)
	}
	if pipelineErr == nil && closeErr != nil {
		pipelineErr = sirerrors.NewTransportError(host, "close", closeErr)
	}
	return pipelineErr
}

func runAction(ctx context.Context, client transport.Client, signer *crypto.Signer, reporter *report.Reporter, ha plan.HostAction) error {
	title := ha.Action.Title()
	if err := reporter.Starting(ha.Host, title); err != nil {
		return sirerrors.NewReportError(ha.Host, err)
	}

	text, err := ha.Action.CanonicalText()
	if err != nil {
		return reportActionFailure(reporter, ha.Host, title, 0, err, nil)
	}

	var signature []byte
	signResult, err := signer.Sign(text, signingKey)
	if err != nil {
		return reportActionFailure(reporter, ha.Host, title, 0, err, nil)
	}
	if signResult.Outcome == crypto.Signed {
		signature = signResult.Signature
	}

	// Cancellation of ctx stops new actions in Run; the action already
	// dispatched here runs to completion.
	result, err := dispatch(context.WithoutCancel(ctx), client, ha.Action, text, signature)
	if err != nil {
		return reportActionFailure(reporter, ha.Host, title, 0, err, nil)
	}

	if result.ExitCode != 0 {
		return reportActionFailure(reporter, ha.Host, title, result.ExitCode, nil, result.Stderr)
	}

	if err := reporter.Completed(ha.Host, title, result.Stdout, result.Stderr); err != nil {
		return sirerrors.NewReportError(ha.Host, err)
	}
	return nil
}

func dispatch(ctx context.Context, client transport.Client, act action.Action, text, signature []byte) (transport.Result, error) {
	switch act.Kind {
	case action.KindCommand:
		return client.Command(ctx, text, signature)
	case action.KindLineInFile:
		return client.LineInFile(ctx, text, signature)
	case action.KindScript:
		return client.Script(ctx, text, signature)
	case action.KindUpload:
		staging := action.UploadStagingPath(act.Upload.To)
		return client.Upload(ctx, act.Upload.From, staging, text, signature)
	case action.KindDownload:
		return client.Download(ctx, act.Download.From, act.Download.To)
	default:
		return transport.Result{}, fmt.Errorf("pipeline: unhandled action kind %q", act.Kind)
	}
}

func reportActionFailure(reporter *report.Reporter, host, title string, exitCode int, err error, stderr []byte) error {
	if repErr := reporter.Failed(host, title, exitCode, err, stderr); repErr != nil {
		return sirerrors.NewReportError(host, repErr)
	}
	if err != nil {
		return sirerrors.NewActionFailureError(host, title, exitCode, err.Error())
	}
	return sirerrors.NewActionFailureError(host, title, exitCode, string(stderr))
}
