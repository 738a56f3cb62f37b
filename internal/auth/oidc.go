package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const oidcTokenPath = "/auth/realms/zerto/protocol/openid-connect/token"

// x/oauth2 reports a 2xx token response without access_token as a plain
// error carrying this text; HTTP failures come back as *oauth2.RetrieveError.
const oauth2MissingTokenText = "missing access_token"

// OIDC authenticates against the Keycloak realm bundled with ZVM 10.x.
type OIDC struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Client       *http.Client
}

func (a *OIDC) Authenticate(ctx context.Context) (string, error) {
	if a.ClientID == "" || a.ClientSecret == "" {
		return "", &Error{Method: "keycloak", Err: fmt.Errorf("%w: client_id and client_secret are required", ErrMissingCredentials)}
	}

	cc := clientcredentials.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		TokenURL:     a.BaseURL + oidcTokenPath,
		Scopes:       []string{"openid"},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	if a.Client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, a.Client)
	}

	tok, err := cc.Token(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if !errors.As(err, &retrieveErr) && strings.Contains(err.Error(), oauth2MissingTokenText) {
			err = fmt.Errorf("%w: %v", ErrMissingToken, err)
		}
		return "", &Error{Method: "keycloak", Err: err}
	}
	if tok.AccessToken == "" {
		return "", &Error{Method: "keycloak", Err: ErrMissingToken}
	}
	return tok.AccessToken, nil
}
