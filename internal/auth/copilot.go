package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// copilotTokenURL is the endpoint that exchanges a GitHub access token
// for a short-lived Copilot API token.
const copilotTokenURL = "https://api.github.com/copilot_internal/v2/token"

// CopilotExchanger implements Exchanger against the live GitHub Copilot
// token endpoint.
type CopilotExchanger struct {
	URL    string
	Client *http.Client
}

// NewCopilotExchanger returns an exchanger bound to the public endpoint
// with a bounded request timeout.
func NewCopilotExchanger() *CopilotExchanger {
	return &CopilotExchanger{
		URL:    copilotTokenURL,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Exchange trades a GitHub access token for a Copilot API token. The
// endpoint returns 401/403 when the GitHub token has been revoked, which
// callers surface as a prompt to re-run /api login.
func (e *CopilotExchanger) Exchange(ctx context.Context, githubToken string) (Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.URL, nil)
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Authorization", "Bearer "+githubToken)
	req.Header.Set("Accept", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("requesting copilot token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return Token{}, fmt.Errorf("github token rejected (%s): run /api login", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return Token{}, fmt.Errorf("copilot token endpoint returned %s", resp.Status)
	}

	var body struct {
		Token     string `json:"token"`
		ExpiresAt int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Token{}, fmt.Errorf("decoding copilot token response: %w", err)
	}
	if body.Token == "" {
		return Token{}, fmt.Errorf("copilot token endpoint returned an empty token")
	}

	return Token{
		SchemeVersion: SchemeVersion,
		Provider:      "copilot",
		AccessToken:   body.Token,
		ExpiresAt:     time.Unix(body.ExpiresAt, 0),
		ObtainedAt:    time.Now(),
	}, nil
}
