package config

import (
	"strings"
	"time"
)

// EligibilityAPIConfig configures the insurance eligibility API client.
// Fields are read with the ELIGIBILITY_API_ prefix.
type EligibilityAPIConfig struct {
	URL     string        `env:"URL"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`

	// OAuth2 client credentials. When TokenURL is set the client fetches and
	// refreshes tokens itself; otherwise Token is sent as a static bearer.
	// IssuerURL lets the token endpoint be discovered when TokenURL is empty.
	TokenURL     string   `env:"TOKEN_URL"`
	IssuerURL    string   `env:"ISSUER_URL"`
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	Scopes       []string `env:"SCOPES"`
	Token        string   `env:"TOKEN"`

	// JMESPath expressions applied to the JSON response.
	ClassExpr   string `env:"CLASS_EXPR"   envDefault:"class"`
	OutcomeExpr string `env:"OUTCOME_EXPR" envDefault:"outcome"`
	NoteExpr    string `env:"NOTE_EXPR"    envDefault:"note"`

	// ProviderID is copied into every request payload.
	ProviderID string `env:"PROVIDER_ID"`
}

// Sanitize trims values and restores default expressions.
func (c *EligibilityAPIConfig) Sanitize() {
	c.URL = strings.TrimSpace(c.URL)
	c.TokenURL = strings.TrimSpace(c.TokenURL)
	c.IssuerURL = strings.TrimSpace(c.IssuerURL)
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.Token = strings.TrimSpace(c.Token)
	c.ProviderID = strings.TrimSpace(c.ProviderID)
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.ClassExpr = strings.TrimSpace(c.ClassExpr); c.ClassExpr == "" {
		c.ClassExpr = "class"
	}
	if c.OutcomeExpr = strings.TrimSpace(c.OutcomeExpr); c.OutcomeExpr == "" {
		c.OutcomeExpr = "outcome"
	}
	if c.NoteExpr = strings.TrimSpace(c.NoteExpr); c.NoteExpr == "" {
		c.NoteExpr = "note"
	}

	scopes := c.Scopes[:0]
	for _, s := range c.Scopes {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	c.Scopes = scopes
}

// UsesClientCredentials reports whether OAuth2 client credentials are configured.
func (c *EligibilityAPIConfig) UsesClientCredentials() bool {
	return (c.TokenURL != "" || c.IssuerURL != "") && c.ClientID != ""
}
