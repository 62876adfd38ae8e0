// Package ldapclient wraps go-ldap behind the small bind capabilities the
// authentication providers consume. Providers depend on the interfaces in
// pkg/auth, so tests can substitute fakes without a directory server.
package ldapclient

import (
	"context"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Entry is the attribute read-back from a successful bind.
type Entry struct {
	// DN is the distinguished name of the bound or located user entry.
	DN string

	// ExternalID is the provider-native identifier (objectGUID for AD,
	// the bind DN otherwise).
	ExternalID string

	DisplayName string
	Email       string
	Groups      []string
}

// Client speaks LDAP to one directory endpoint.
type Client struct {
	endpoint string
	timeout  time.Duration
}

// New creates a client for an ldap:// or ldaps:// endpoint.
func New(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		timeout:  timeout,
	}
}

// dial opens a connection honoring both the configured timeout and the
// caller's context deadline.
func (c *Client) dial(ctx context.Context) (*ldap.Conn, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("ldap endpoint not configured")
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	conn, err := ldap.DialURL(c.endpoint,
		ldap.DialWithDialer(&net.Dialer{Timeout: timeout}),
		ldap.DialWithTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}),
	)
	if err != nil {
		return nil, fmt.Errorf("ldap dial: %w", err)
	}
	conn.SetTimeout(timeout)
	return conn, nil
}

// BindUPN performs an AD-style simple bind as user@domain and, when baseDN
// is non-empty, reads the user entry back for identity enrichment.
//
// A bind rejection is reported via IsCredentialError; any other failure is
// a backend error.
func (c *Client) BindUPN(ctx context.Context, upn, secret, baseDN string) (*Entry, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.Bind(upn, secret); err != nil {
		return nil, fmt.Errorf("bind %q: %w", upn, err)
	}

	entry := &Entry{ExternalID: upn}
	if baseDN == "" {
		return entry, nil
	}

	// Enrichment is best effort: the bind already proved the credentials.
	req := ldap.NewSearchRequest(
		baseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 0, false,
		fmt.Sprintf("(|(userPrincipalName=%s)(sAMAccountName=%s))",
			ldap.EscapeFilter(upn), ldap.EscapeFilter(strings.SplitN(upn, "@", 2)[0])),
		[]string{"objectGUID", "displayName", "mail", "memberOf"},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil || len(res.Entries) == 0 {
		return entry, nil
	}

	found := res.Entries[0]
	entry.DN = found.DN
	entry.DisplayName = found.GetAttributeValue("displayName")
	entry.Email = found.GetAttributeValue("mail")
	entry.Groups = found.GetAttributeValues("memberOf")
	if guid := found.GetRawAttributeValue("objectGUID"); len(guid) > 0 {
		entry.ExternalID = hex.EncodeToString(guid)
	}
	return entry, nil
}

// BindDN performs an authenticated simple bind with a full distinguished
// name, then reads the entry's own attributes back. The read-back doubles
// as the success criterion for plain-LDAP verification: a bind that cannot
// read at least one attribute of its own entry does not count.
func (c *Client) BindDN(ctx context.Context, dn, secret string) (*Entry, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.Bind(dn, secret); err != nil {
		return nil, fmt.Errorf("bind %q: %w", dn, err)
	}

	req := ldap.NewSearchRequest(
		dn,
		ldap.ScopeBaseObject, ldap.NeverDerefAliases, 1, 0, false,
		"(objectClass=*)",
		[]string{"cn", "displayName", "mail", "uid"},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("attribute read-back for %q: %w", dn, err)
	}
	if len(res.Entries) == 0 {
		return nil, fmt.Errorf("bound entry %q not readable", dn)
	}

	found := res.Entries[0]
	entry := &Entry{
		DN:          found.DN,
		ExternalID:  found.DN,
		Email:       found.GetAttributeValue("mail"),
		DisplayName: found.GetAttributeValue("displayName"),
	}
	if entry.DisplayName == "" {
		entry.DisplayName = found.GetAttributeValue("cn")
	}
	return entry, nil
}

// IsCredentialError reports whether err is an LDAP invalid-credentials
// result, as opposed to a connectivity or protocol failure.
func IsCredentialError(err error) bool {
	return ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials)
}
