package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/auth/ldapclient"
)

// Binder is the directory-bind capability the Directory provider delegates
// to: an AD-style simple bind as user@domain plus attribute read-back.
type Binder interface {
	BindUPN(ctx context.Context, upn, secret, baseDN string) (*ldapclient.Entry, error)
}

// DirectoryProvider verifies credentials against an Active Directory
// domain by binding with the user principal name.
type DirectoryProvider struct {
	cfg    ProviderConfig
	binder Binder
}

// NewDirectoryProvider creates a Directory provider delegating to the
// given binder.
func NewDirectoryProvider(cfg ProviderConfig, binder Binder) *DirectoryProvider {
	return &DirectoryProvider{
		cfg:    cfg,
		binder: binder,
	}
}

// Name returns the configured provider name.
func (p *DirectoryProvider) Name() string { return p.cfg.Name }

// PasswordBased returns true.
func (p *DirectoryProvider) PasswordBased() bool { return true }

// Verify binds as username@domain and maps the directory entry onto the
// auth result. Bind rejections are credential failures; connectivity
// problems are provider failures and fall under the fallback-chain policy.
func (p *DirectoryProvider) Verify(ctx context.Context, username, secret string) (*Result, error) {
	if p.cfg.Endpoint == "" {
		return nil, fmt.Errorf("provider %q: no directory endpoint configured", p.cfg.Name)
	}

	upn := username
	if p.cfg.Domain != "" && !strings.Contains(username, "@") {
		upn = username + "@" + p.cfg.Domain
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.timeout())
	defer cancel()

	entry, err := p.binder.BindUPN(ctx, upn, secret, p.cfg.BaseDN)
	if err != nil {
		if ldapclient.IsCredentialError(err) {
			return nil, fmt.Errorf("directory rejected bind: %w", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("directory bind failed: %w", err)
	}

	result := &Result{
		Username:    username,
		Provider:    p.cfg.Name,
		ExternalID:  entry.ExternalID,
		DisplayName: entry.DisplayName,
		Email:       entry.Email,
		Groups:      entry.Groups,
	}
	if result.DisplayName == "" {
		result.DisplayName = username
	}
	return result, nil
}
