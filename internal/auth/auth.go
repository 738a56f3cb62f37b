// Package auth obtains the bearer token used against the ZVM REST API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/yuxishi/zvm-license-report/internal/config"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrMissingToken       = errors.New("token missing from response")
	ErrUnknownVersion     = errors.New("unknown auth version")
)

// Authenticator performs a single authentication attempt and returns the token.
type Authenticator interface {
	Authenticate(ctx context.Context) (string, error)
}

type Error struct {
	Method string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s auth failed: %v", e.Method, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New picks the authenticator matching cfg.Auth.Version.
func New(cfg *config.Config, client *http.Client) (Authenticator, error) {
	if client == nil {
		client = http.DefaultClient
	}
	switch cfg.Auth.Version {
	case config.AuthOIDC:
		return &OIDC{
			BaseURL:      cfg.ZVMURL,
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			Client:       client,
		}, nil
	case config.AuthLegacy:
		return &Legacy{
			BaseURL:  cfg.ZVMURL,
			Username: cfg.Auth.Username,
			Password: cfg.Auth.Password,
			Client:   client,
		}, nil
	default:
		return nil, &Error{Method: cfg.Auth.Version, Err: ErrUnknownVersion}
	}
}
