package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/auth/ldapclient"
)

// DNBinder is the bind capability the LDAP provider delegates to: an
// authenticated simple bind with a full DN plus self read-back.
type DNBinder interface {
	BindDN(ctx context.Context, dn, secret string) (*ldapclient.Entry, error)
}

// LDAPProvider verifies credentials by constructing a bind DN for the user
// and attempting an authenticated bind.
//
// DN construction is a template, not a fixed pattern: schemas differ in
// naming attribute (uid vs sAMAccountName vs cn) and OU nesting, so the
// configuration can either supply bind_dn_template outright or have the DN
// assembled from bind_attribute and base_dn.
type LDAPProvider struct {
	cfg    ProviderConfig
	binder DNBinder
}

// NewLDAPProvider creates an LDAP provider delegating to the given binder.
func NewLDAPProvider(cfg ProviderConfig, binder DNBinder) *LDAPProvider {
	return &LDAPProvider{
		cfg:    cfg,
		binder: binder,
	}
}

// Name returns the configured provider name.
func (p *LDAPProvider) Name() string { return p.cfg.Name }

// PasswordBased returns true.
func (p *LDAPProvider) PasswordBased() bool { return true }

// BindDN renders the bind DN for a username. The username is DN-escaped
// before substitution.
func (p *LDAPProvider) BindDN(username string) (string, error) {
	escaped := ldap.EscapeDN(username)

	if p.cfg.BindDNTemplate != "" {
		if !strings.Contains(p.cfg.BindDNTemplate, "%s") {
			return "", fmt.Errorf("provider %q: bind_dn_template must contain %%s", p.cfg.Name)
		}
		return fmt.Sprintf(p.cfg.BindDNTemplate, escaped), nil
	}

	if p.cfg.BaseDN == "" {
		return "", fmt.Errorf("provider %q: base_dn not configured", p.cfg.Name)
	}
	attr := p.cfg.BindAttribute
	if attr == "" {
		attr = "uid"
	}
	return fmt.Sprintf("%s=%s,%s", attr, escaped, p.cfg.BaseDN), nil
}

// Verify attempts an authenticated bind with the constructed DN. A bind
// that can read back at least one attribute of its own entry counts as
// success; the bind DN becomes the external ID.
func (p *LDAPProvider) Verify(ctx context.Context, username, secret string) (*Result, error) {
	dn, err := p.BindDN(username)
	if err != nil {
		// Structural misconfiguration is a provider failure, never a panic.
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.timeout())
	defer cancel()

	entry, err := p.binder.BindDN(ctx, dn, secret)
	if err != nil {
		if ldapclient.IsCredentialError(err) {
			return nil, fmt.Errorf("ldap rejected bind: %w", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("ldap bind failed: %w", err)
	}

	result := &Result{
		Username:    username,
		Provider:    p.cfg.Name,
		ExternalID:  entry.ExternalID,
		DisplayName: entry.DisplayName,
		Email:       entry.Email,
	}
	if result.ExternalID == "" {
		result.ExternalID = dn
	}
	if result.DisplayName == "" {
		result.DisplayName = username
	}
	return result, nil
}
