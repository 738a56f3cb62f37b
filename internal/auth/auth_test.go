package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"

	"github.com/yuxishi/zvm-license-report/internal/config"
)

func newConfig(version, url string) *config.Config {
	cfg := config.Default()
	cfg.ZVMURL = url
	cfg.Auth.Version = version
	return cfg
}

func TestNewSelectsVariant(t *testing.T) {
	a, err := New(newConfig(config.AuthOIDC, "https://zvm"), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := a.(*OIDC); !ok {
		t.Fatalf("expected *OIDC, got %T", a)
	}

	a, err = New(newConfig(config.AuthLegacy, "https://zvm"), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := a.(*Legacy); !ok {
		t.Fatalf("expected *Legacy, got %T", a)
	}

	if _, err := New(newConfig("9.0", "https://zvm"), nil); !errors.Is(err, ErrUnknownVersion) {
		t.Fatalf("expected ErrUnknownVersion, got %v", err)
	}
}

func TestOIDCAuthenticate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != oidcTokenPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "client_credentials" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}
		if r.PostForm.Get("client_id") != "reporter" || r.PostForm.Get("client_secret") != "s3cret" {
			t.Errorf("credentials not sent in params: %v", r.PostForm)
		}
		if r.PostForm.Get("scope") != "openid" {
			t.Errorf("scope = %q", r.PostForm.Get("scope"))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-123", "token_type": "Bearer", "expires_in": 300})
	}))
	defer srv.Close()

	a := &OIDC{BaseURL: srv.URL, ClientID: "reporter", ClientSecret: "s3cret", Client: srv.Client()}
	tok, err := a.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if tok != "tok-123" {
		t.Fatalf("token = %q", tok)
	}
}

func TestOIDCFailures(t *testing.T) {
	if _, err := (&OIDC{BaseURL: "http://unused", ClientID: "only-id"}).Authenticate(context.Background()); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}

	noToken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
	}))
	defer noToken.Close()
	a := &OIDC{BaseURL: noToken.URL, ClientID: "id", ClientSecret: "secret", Client: noToken.Client()}
	if _, err := a.Authenticate(context.Background()); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}

	denied := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized_client"}`, http.StatusUnauthorized)
	}))
	defer denied.Close()
	a = &OIDC{BaseURL: denied.URL, ClientID: "id", ClientSecret: "secret", Client: denied.Client()}
	_, err := a.Authenticate(context.Background())
	var authErr *Error
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *auth.Error, got %T: %v", err, err)
	}
	if authErr.Method != "keycloak" {
		t.Fatalf("method = %q", authErr.Method)
	}
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) || retrieveErr.Response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected wrapped *oauth2.RetrieveError with 401, got %v", err)
	}
	if errors.Is(err, ErrMissingToken) {
		t.Fatalf("a rejected request is not a missing token")
	}
}

func TestLegacyAuthenticate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != legacyLoginPath {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body loginRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Username != "admin" || body.Password != "pw" {
			t.Errorf("unexpected credentials %+v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"sessionId": "sess-42"})
	}))
	defer srv.Close()

	a := &Legacy{BaseURL: srv.URL, Username: "admin", Password: "pw", Client: srv.Client()}
	tok, err := a.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if tok != "sess-42" {
		t.Fatalf("token = %q", tok)
	}
}

func TestLegacyFailures(t *testing.T) {
	if _, err := (&Legacy{BaseURL: "http://unused", Username: "admin"}).Authenticate(context.Background()); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		sentinel error
	}{
		{"no session id", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"other":"x"}`)) }, ErrMissingToken},
		{"http error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) }, nil},
		{"bad json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`not json`)) }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			a := &Legacy{BaseURL: srv.URL, Username: "admin", Password: "pw", Client: srv.Client()}
			_, err := a.Authenticate(context.Background())
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Fatalf("expected %v, got %v", tt.sentinel, err)
			}
			var authErr *Error
			if !errors.As(err, &authErr) || authErr.Method != "legacy" {
				t.Fatalf("expected legacy *auth.Error, got %v", err)
			}
		})
	}
}
