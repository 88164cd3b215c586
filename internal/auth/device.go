package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// DeviceFlowConfig is the GitHub OAuth App registration CLIO authenticates
// as. ClientID has no secret counterpart: device flow is designed for
// public clients that can't keep a secret (CLI tools, among them).
type DeviceFlowConfig struct {
	ClientID string
	Scopes   []string
	Endpoint oauth2.Endpoint
}

// GitHubDeviceFlowConfig returns the standard GitHub device-flow endpoint
// configuration for the given registered client ID.
func GitHubDeviceFlowConfig(clientID string) DeviceFlowConfig {
	return DeviceFlowConfig{
		ClientID: clientID,
		Scopes:   []string{"read:user"},
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: "https://github.com/login/device/code",
			TokenURL:      "https://github.com/login/oauth/access_token",
		},
	}
}

// DeviceCode is the user-facing half of a device-flow login: the code to
// type and the URL to visit, written by the "/api login" handler straight
// to the terminal (Deps.Write) before the blocking poll begins.
type DeviceCode struct {
	UserCode        string
	VerificationURI string
	ExpiresIn       time.Duration
	Interval        time.Duration
}

// Login runs RFC 8628: it requests a device code, returns it to the
// caller via onCode (so the handler can render it before blocking), then
// polls the token endpoint until the user authorizes, the code expires,
// or ctx is canceled.
func Login(ctx context.Context, cfg DeviceFlowConfig, onCode func(DeviceCode)) (Token, error) {
	oauthCfg := &oauth2.Config{
		ClientID: cfg.ClientID,
		Scopes:   cfg.Scopes,
		Endpoint: cfg.Endpoint,
	}

	resp, err := oauthCfg.DeviceAuth(ctx)
	if err != nil {
		return Token{}, fmt.Errorf("requesting device code: %w", err)
	}

	onCode(DeviceCode{
		UserCode:        resp.UserCode,
		VerificationURI: resp.VerificationURI,
		ExpiresIn:       time.Until(resp.Expiry),
		Interval:        time.Duration(resp.Interval) * time.Second,
	})

	tok, err := oauthCfg.DeviceAccessToken(ctx, resp)
	if err != nil {
		return Token{}, fmt.Errorf("polling for device authorization: %w", err)
	}

	return Token{
		SchemeVersion: SchemeVersion,
		Provider:      "github",
		AccessToken:   tok.AccessToken,
		RefreshToken:  tok.RefreshToken,
		ExpiresAt:     tok.Expiry,
		ObtainedAt:    time.Now(),
	}, nil
}
