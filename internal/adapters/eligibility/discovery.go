package eligibility

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
)

// DiscoverTokenURL reads the issuer's OpenID Connect discovery document and
// returns its token endpoint. httpClient may be nil.
func DiscoverTokenURL(ctx context.Context, issuer string, httpClient *http.Client) (string, error) {
	if issuer == "" {
		return "", errors.New("issuer url is required")
	}
	if httpClient != nil {
		ctx = oidc.ClientContext(ctx, httpClient)
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return "", fmt.Errorf("discover token endpoint: %w", err)
	}
	tokenURL := provider.Endpoint().TokenURL
	if tokenURL == "" {
		return "", fmt.Errorf("issuer %s does not advertise a token endpoint", issuer)
	}
	return tokenURL, nil
}
