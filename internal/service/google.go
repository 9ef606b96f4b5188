package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/openclaw/bountyboard/internal/config"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleOAuth runs the federated handshake against Google. The provider
// asserts email and display name; no password is ever seen here.
type GoogleOAuth struct {
	conf *oauth2.Config
}

func NewGoogleOAuth(cfg config.Config) *GoogleOAuth {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return &GoogleOAuth{}
	}
	return &GoogleOAuth{conf: &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleCallbackURL,
		Scopes:       []string{"email", "profile"},
		Endpoint:     google.Endpoint,
	}}
}

// Enabled reports whether Google credentials are configured.
func (g *GoogleOAuth) Enabled() bool { return g.conf != nil }

// AuthURL builds the consent-page URL. The state string round-trips the
// out-of-band registration intent through the handshake.
func (g *GoogleOAuth) AuthURL(state string) string {
	return g.conf.AuthCodeURL(state)
}

// Exchange trades the authorization code for a token and fetches the
// asserted profile from the userinfo endpoint.
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (GoogleProfile, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("exchange code: %w", err)
	}
	resp, err := g.conf.Client(ctx, tok).Get(googleUserInfoURL)
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return GoogleProfile{}, fmt.Errorf("userinfo status %d: %s", resp.StatusCode, body)
	}
	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"given_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return GoogleProfile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	return GoogleProfile{
		Email:    info.Email,
		Name:     info.Name,
		GoogleID: info.ID,
		Token:    tok.AccessToken,
	}, nil
}
