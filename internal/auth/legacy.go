package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const legacyLoginPath = "/v1/auth/login"

// Legacy uses the session login of ZVM releases before 10.x.
type Legacy struct {
	BaseURL  string
	Username string
	Password string
	Client   *http.Client
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionID string `json:"sessionId"`
}

func (a *Legacy) Authenticate(ctx context.Context) (string, error) {
	if a.Username == "" || a.Password == "" {
		return "", &Error{Method: "legacy", Err: fmt.Errorf("%w: username and password are required", ErrMissingCredentials)}
	}

	body, err := json.Marshal(loginRequest{Username: a.Username, Password: a.Password})
	if err != nil {
		return "", &Error{Method: "legacy", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+legacyLoginPath, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Method: "legacy", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &Error{Method: "legacy", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{Method: "legacy", Err: fmt.Errorf("login returned HTTP %d", resp.StatusCode)}
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &Error{Method: "legacy", Err: fmt.Errorf("decode login response: %w", err)}
	}
	if out.SessionID == "" {
		return "", &Error{Method: "legacy", Err: ErrMissingToken}
	}
	return out.SessionID, nil
}
