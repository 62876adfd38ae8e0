// Package auth implements the platform's authentication core: credential
// hashing, the pluggable provider adapters, the fallback orchestrator,
// identity reconciliation, and bearer-token issuance/validation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/auth/ldapclient"
)

// Common errors for authentication operations.
var (
	// ErrInvalidCredentials marks a credential failure (wrong secret,
	// unknown user, disabled account). Providers wrap it so the
	// orchestrator can tell credential failures from backend failures;
	// the wrapping detail is for the audit trail only and never reaches
	// the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAuthenticationFailed is the generic failure returned to callers.
	// It deliberately names no provider and carries no cause.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrProviderNotFound is returned when an explicitly requested
	// provider is unknown or not enabled.
	ErrProviderNotFound = errors.New("authentication provider not found or not enabled")
)

// Result is the identity payload of a successful provider verification.
// It lives only for the duration of one authentication call; the
// reconciler maps it onto the durable user record.
type Result struct {
	Username    string
	Provider    string
	ExternalID  string
	DisplayName string
	Email       string
	Groups      []string
}

// Provider verifies a username/secret pair against one identity backend.
//
// Implementations must be total: every internal or network failure is
// converted into an error return, never a panic. Credential failures wrap
// ErrInvalidCredentials; any other error is a provider failure and is
// subject to the orchestrator's fallback-chain policy.
type Provider interface {
	// Name returns the configured provider name (not the type).
	Name() string

	// PasswordBased reports whether the provider can verify a
	// username/secret pair. SSO-style providers return false and are
	// skipped by the orchestrator.
	PasswordBased() bool

	// Verify checks the credentials and returns the resolved identity.
	Verify(ctx context.Context, username, secret string) (*Result, error)
}

// Provider type identifiers. The set is closed: providers are selected
// through the factory table in BuildProviders, not by open-ended dispatch.
const (
	TypeLocal      = "local"
	TypeDirectory  = "directory"
	TypeLDAP       = "ldap"
	TypeFederation = "federation"
	TypeSSO        = "sso"
)

// DefaultVerifyTimeout bounds a single provider verification, covering the
// backend dial, bind, and attribute read.
const DefaultVerifyTimeout = 10 * time.Second

// ProviderConfig describes one configured identity backend.
type ProviderConfig struct {
	// Name is the unique provider identifier used in login requests and
	// stored as the user's auth-provider tag.
	Name string `mapstructure:"name" yaml:"name" validate:"required"`

	// Type selects the adapter implementation: local, directory, ldap,
	// federation, or sso.
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=local directory ldap federation sso"`

	// Enabled providers participate in the fallback chain.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Priority orders the fallback chain, ascending. Lower tries first.
	Priority int `mapstructure:"priority" yaml:"priority"`

	// Endpoint is the backend URL (ldap://host:389 for directory/ldap,
	// the RST endpoint URL for federation).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Domain is the AD domain used to build the user principal name for
	// directory binds (user@domain).
	Domain string `mapstructure:"domain" yaml:"domain"`

	// BaseDN anchors LDAP bind-DN construction.
	BaseDN string `mapstructure:"base_dn" yaml:"base_dn"`

	// BindAttribute is the DN naming attribute (uid, sAMAccountName, cn).
	// Default: uid.
	BindAttribute string `mapstructure:"bind_attribute" yaml:"bind_attribute"`

	// BindDNTemplate overrides BaseDN/BindAttribute construction entirely.
	// The %s verb is replaced with the escaped username, e.g.
	// "uid=%s,ou=people,dc=corp,dc=example". LDAP schemas vary too much
	// for one hardcoded pattern.
	BindDNTemplate string `mapstructure:"bind_dn_template" yaml:"bind_dn_template"`

	// Timeout bounds one verification attempt. Default: DefaultVerifyTimeout.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

func (c *ProviderConfig) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultVerifyTimeout
}

// Deps carries the collaborator capabilities provider construction needs.
type Deps struct {
	Store  UserStore
	Hasher *Hasher
}

// factory builds one provider from its configuration.
type factory func(cfg ProviderConfig, deps Deps) (Provider, error)

// factories is the closed set of provider types.
var factories = map[string]factory{
	TypeLocal: func(cfg ProviderConfig, deps Deps) (Provider, error) {
		// Local-user ownership is keyed on the literal name "local"; a
		// differently named local provider would strand its users after
		// their first login re-tags them.
		if cfg.Name != TypeLocal {
			return nil, fmt.Errorf("local provider must be named %q, got %q", TypeLocal, cfg.Name)
		}
		if deps.Store == nil {
			return nil, fmt.Errorf("local provider %q requires a user store", cfg.Name)
		}
		hasher := deps.Hasher
		if hasher == nil {
			hasher = NewHasher()
		}
		return NewLocalProvider(cfg.Name, deps.Store, hasher), nil
	},
	TypeDirectory: func(cfg ProviderConfig, deps Deps) (Provider, error) {
		client := ldapclient.New(cfg.Endpoint, cfg.timeout())
		return NewDirectoryProvider(cfg, client), nil
	},
	TypeLDAP: func(cfg ProviderConfig, deps Deps) (Provider, error) {
		client := ldapclient.New(cfg.Endpoint, cfg.timeout())
		return NewLDAPProvider(cfg, client), nil
	},
	TypeFederation: func(cfg ProviderConfig, deps Deps) (Provider, error) {
		return NewFederationProvider(cfg), nil
	},
	TypeSSO: func(cfg ProviderConfig, deps Deps) (Provider, error) {
		return &ssoProvider{name: cfg.Name}, nil
	},
}

// BuildProviders constructs the enabled providers from configuration,
// sorted by ascending priority. The factory table is consulted once here,
// at configuration-load time; unknown types are a configuration error.
func BuildProviders(cfgs []ProviderConfig, deps Deps) ([]Provider, error) {
	enabled := make([]ProviderConfig, 0, len(cfgs))
	for _, cfg := range cfgs {
		if cfg.Enabled {
			enabled = append(enabled, cfg)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority < enabled[j].Priority
	})

	providers := make([]Provider, 0, len(enabled))
	seen := make(map[string]bool, len(enabled))
	for _, cfg := range enabled {
		if seen[cfg.Name] {
			return nil, fmt.Errorf("duplicate provider name %q", cfg.Name)
		}
		seen[cfg.Name] = true

		build, ok := factories[cfg.Type]
		if !ok {
			return nil, fmt.Errorf("unknown provider type %q for provider %q", cfg.Type, cfg.Name)
		}
		provider, err := build(cfg, deps)
		if err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}

	return providers, nil
}

// ssoProvider is a placeholder for browser-redirect SSO backends. It never
// verifies passwords; the orchestrator skips it.
type ssoProvider struct {
	name string
}

func (p *ssoProvider) Name() string        { return p.name }
func (p *ssoProvider) PasswordBased() bool { return false }

func (p *ssoProvider) Verify(ctx context.Context, username, secret string) (*Result, error) {
	return nil, fmt.Errorf("provider %q does not support password verification", p.name)
}
