package runner

import (
	"context"

	"github.com/sira-systems/sira/internal/crypto"
	"github.com/sira-systems/sira/internal/pipeline"
	"github.com/sira-systems/sira/internal/plan"
	"github.com/sira-systems/sira/internal/report"
	"github.com/sira-systems/sira/internal/transport"
)

func defaultPipelineRun(ctx context.Context, dialer transport.Dialer, signer *crypto.Signer, reporter *report.Reporter, p plan.Plan, host string) error {
	return pipeline.Run(ctx, dialer, signer, reporter, p, host)
}
