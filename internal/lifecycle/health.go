package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Proton-105/spinhall-bot/internal/health"
)

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// Probes backs /healthz and /readyz.
type Probes struct {
	checker *health.Checker
	log     *slog.Logger
}

var _ HealthChecker = (*Probes)(nil)

// NewProbes creates probes over checker. A nil checker is always ready.
func NewProbes(checker *health.Checker, log *slog.Logger) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{checker: checker, log: log}
}

// Liveness reports that the process is serving.
func (p *Probes) Liveness(ctx context.Context) error {
	p.log.Debug("liveness probe called")
	return nil
}

// Readiness fails when any dependency check fails.
func (p *Probes) Readiness(ctx context.Context) error {
	if p.checker == nil {
		return nil
	}
	results := p.checker.Check(ctx)
	if failed := health.Failing(results); len(failed) > 0 {
		return fmt.Errorf("not ready: %s", strings.Join(failed, ", "))
	}
	return nil
}

// Report returns the per-component statuses for the readiness response body.
func (p *Probes) Report(ctx context.Context) map[string]string {
	if p.checker == nil {
		return map[string]string{}
	}
	return p.checker.Check(ctx)
}
