package auth

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// rstEnvelope is the WS-Trust RequestSecurityToken exchange sent to an
// ADFS-style token endpoint. Username/password travel in a UsernameToken
// security header; the requested token type is left to the endpoint's
// default.
const rstEnvelope = `<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope" xmlns:a="http://www.w3.org/2005/08/addressing" xmlns:u="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd">
  <s:Header>
    <a:Action s:mustUnderstand="1">http://docs.oasis-open.org/ws-sx/ws-trust/200512/RST/Issue</a:Action>
    <a:To s:mustUnderstand="1">%s</a:To>
    <o:Security s:mustUnderstand="1" xmlns:o="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd">
      <o:UsernameToken>
        <o:Username>%s</o:Username>
        <o:Password>%s</o:Password>
      </o:UsernameToken>
    </o:Security>
  </s:Header>
  <s:Body>
    <trust:RequestSecurityToken xmlns:trust="http://docs.oasis-open.org/ws-sx/ws-trust/200512">
      <trust:RequestType>http://docs.oasis-open.org/ws-sx/ws-trust/200512/Issue</trust:RequestType>
      <trust:KeyType>http://docs.oasis-open.org/ws-sx/ws-trust/200512/Bearer</trust:KeyType>
    </trust:RequestSecurityToken>
  </s:Body>
</s:Envelope>`

// FederationProvider verifies credentials through a WS-Trust
// request-security-token exchange against an ADFS-style endpoint.
//
// Full WS-Trust/SAML parsing is out of scope: any response carrying a
// RequestedSecurityToken counts as success, and claim extraction is best
// effort.
type FederationProvider struct {
	cfg    ProviderConfig
	client *resty.Client
}

// NewFederationProvider creates a federation provider for the configured
// token endpoint.
func NewFederationProvider(cfg ProviderConfig) *FederationProvider {
	client := resty.New().
		SetTimeout(cfg.timeout()).
		SetHeader("Content-Type", "application/soap+xml; charset=utf-8")

	return &FederationProvider{
		cfg:    cfg,
		client: client,
	}
}

// Name returns the configured provider name.
func (p *FederationProvider) Name() string { return p.cfg.Name }

// PasswordBased returns true.
func (p *FederationProvider) PasswordBased() bool { return true }

// Verify posts the RST envelope to the token endpoint. The STS answers a
// bad password with a SOAP fault (typically HTTP 500), which is a
// credential failure; transport errors are provider failures.
func (p *FederationProvider) Verify(ctx context.Context, username, secret string) (*Result, error) {
	if p.cfg.Endpoint == "" {
		return nil, fmt.Errorf("provider %q: no token endpoint configured", p.cfg.Name)
	}

	envelope := fmt.Sprintf(rstEnvelope,
		xmlEscape(p.cfg.Endpoint), xmlEscape(username), xmlEscape(secret))

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(envelope).
		Post(p.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("token endpoint request failed: %w", err)
	}

	body := resp.String()
	if !resp.IsSuccess() || !strings.Contains(body, "RequestedSecurityToken") {
		return nil, fmt.Errorf("token endpoint refused issuance (status %d): %w",
			resp.StatusCode(), ErrInvalidCredentials)
	}

	result := &Result{
		Username:   username,
		Provider:   p.cfg.Name,
		ExternalID: username,
	}
	// Display name and email stay blank unless the claims parse.
	result.DisplayName, result.Email = scrapeClaims(body)
	return result, nil
}

// scrapeClaims pulls display-name and email attribute values out of a SAML
// assertion without committing to a full schema. Anything it cannot find
// stays empty.
func scrapeClaims(body string) (displayName, email string) {
	decoder := xml.NewDecoder(strings.NewReader(body))
	var currentClaim string
	for {
		tok, err := decoder.Token()
		if err != nil {
			return displayName, email
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Attribute":
				currentClaim = ""
				for _, attr := range t.Attr {
					if attr.Name.Local == "Name" || attr.Name.Local == "AttributeName" {
						currentClaim = strings.ToLower(attr.Value)
					}
				}
			case "AttributeValue":
				var value string
				if err := decoder.DecodeElement(&value, &t); err != nil {
					return displayName, email
				}
				switch {
				case strings.HasSuffix(currentClaim, "emailaddress"), strings.HasSuffix(currentClaim, "upn"):
					if email == "" {
						email = value
					}
				case strings.HasSuffix(currentClaim, "displayname"), strings.HasSuffix(currentClaim, "name"):
					if displayName == "" {
						displayName = value
					}
				}
			}
		}
	}
}

// xmlEscape escapes a value for embedding in the RST envelope.
func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
