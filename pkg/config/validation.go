package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/auth"
)

// Validate checks the configuration for errors.
//
// Struct-level constraints (validate tags) are checked first, then
// cross-field rules the tags cannot express: provider name uniqueness and
// per-type required fields.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	return validateProviders(cfg.Auth.Providers)
}

// validateProviders checks provider-chain configuration rules that the
// struct tags cannot express.
func validateProviders(providers []auth.ProviderConfig) error {
	seen := make(map[string]bool, len(providers))
	for _, p := range providers {
		if seen[p.Name] {
			return fmt.Errorf("duplicate provider name %q", p.Name)
		}
		seen[p.Name] = true

		if !p.Enabled {
			continue
		}
		switch p.Type {
		case auth.TypeLocal:
			// The provider name is stored as user ownership and checked on
			// every local login; any other name locks local users out after
			// reconciliation re-tags them.
			if p.Name != auth.TypeLocal {
				return fmt.Errorf("provider %q: local providers must be named %q", p.Name, auth.TypeLocal)
			}
		case auth.TypeDirectory:
			if p.Endpoint == "" {
				return fmt.Errorf("provider %q: directory providers require an endpoint", p.Name)
			}
			if p.Domain == "" {
				return fmt.Errorf("provider %q: directory providers require a domain", p.Name)
			}
		case auth.TypeLDAP:
			if p.Endpoint == "" {
				return fmt.Errorf("provider %q: ldap providers require an endpoint", p.Name)
			}
			if p.BaseDN == "" && p.BindDNTemplate == "" {
				return fmt.Errorf("provider %q: ldap providers require a base_dn or bind_dn_template", p.Name)
			}
		case auth.TypeFederation:
			if p.Endpoint == "" {
				return fmt.Errorf("provider %q: federation providers require an endpoint", p.Name)
			}
		}
	}
	return nil
}
