package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/internal/logger"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/metrics"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/models"
)

// Authenticator drives the provider fallback chain.
//
// Providers are tried strictly in ascending priority order; the first
// success terminates the chain. A credential failure always falls through
// to the next candidate, while a provider (backend) failure falls through
// only when the fallback chain is enabled. The exhaustion failure is
// deliberately generic: it confirms nothing about which provider, if any,
// recognized the username.
type Authenticator struct {
	providers     []Provider // ascending priority
	byName        map[string]Provider
	fallbackChain bool
	audit         Sink
	metrics       *metrics.AuthMetrics
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithAuditSink attaches the write-only audit sink.
func WithAuditSink(sink Sink) Option {
	return func(a *Authenticator) { a.audit = sink }
}

// WithMetrics attaches the auth metric set.
func WithMetrics(m *metrics.AuthMetrics) Option {
	return func(a *Authenticator) { a.metrics = m }
}

// NewAuthenticator creates the orchestrator over an already priority-sorted
// provider list (as produced by BuildProviders).
func NewAuthenticator(providers []Provider, fallbackChain bool, opts ...Option) *Authenticator {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	a := &Authenticator{
		providers:     providers,
		byName:        byName,
		fallbackChain: fallbackChain,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate verifies the credentials against the candidate providers.
//
// requestedProvider narrows the chain to that single provider; an unknown
// or disabled name fails fast with ErrProviderNotFound. On exhaustion the
// returned error is ErrAuthenticationFailed with no provider attribution;
// the audit trail keeps the per-provider detail.
func (a *Authenticator) Authenticate(ctx context.Context, username, secret, requestedProvider string) (*Result, error) {
	candidates := a.providers
	if requestedProvider != "" {
		provider, ok := a.byName[requestedProvider]
		if !ok {
			a.recordAttempt(ctx, username, requestedProvider, "provider_error", "requested provider not configured")
			return nil, ErrProviderNotFound
		}
		candidates = []Provider{provider}
	}

	for _, provider := range candidates {
		if !provider.PasswordBased() {
			continue
		}

		result, err := provider.Verify(ctx, username, secret)
		if err == nil {
			a.recordAttempt(ctx, username, provider.Name(), "success", "")
			return result, nil
		}

		if errors.Is(err, ErrInvalidCredentials) {
			// Credential failures always fall through: the user may be
			// known to a later backend.
			a.recordAttempt(ctx, username, provider.Name(), "credential_error", err.Error())
			continue
		}

		// Backend failure: the fallback-chain flag decides whether the
		// next candidate gets a chance.
		a.recordAttempt(ctx, username, provider.Name(), "provider_error", err.Error())
		if !a.fallbackChain {
			return nil, fmt.Errorf("provider %s unavailable: %w", provider.Name(), err)
		}
		logger.WarnCtx(ctx, "provider failed, continuing fallback chain",
			"provider", provider.Name(), "error", err)
	}

	return nil, ErrAuthenticationFailed
}

// Providers returns the configured chain in trial order.
func (a *Authenticator) Providers() []Provider {
	return a.providers
}

// recordAttempt writes one login attempt to the audit sink and metrics.
// Sink failures are logged and swallowed; auditing never fails a login.
func (a *Authenticator) recordAttempt(ctx context.Context, username, provider, outcome, detail string) {
	a.metrics.RecordLoginAttempt(provider, outcome)

	if a.audit == nil {
		return
	}

	risk := models.RiskLow
	if outcome != "success" {
		risk = models.RiskMedium
	}
	event := &models.AuditEvent{
		Action:    "auth.login",
		Actor:     username,
		Outcome:   outcome,
		RiskLevel: risk,
		Detail:    detail,
	}
	if provider != "" {
		event.Detail = fmt.Sprintf("provider=%s %s", provider, detail)
	}
	if err := a.audit.RecordAuditEvent(ctx, event); err != nil {
		logger.WarnCtx(ctx, "failed to record audit event",
			"action", event.Action, "actor", username, "error", err)
	}
}
