// Package oauth runs the Google authorization-code flow and returns the signed-in profile.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"teamhub/backend/internal/cache"
)

const (
	userInfoURL    = "https://openidconnect.googleapis.com/v1/userinfo"
	stateTTL       = 10 * time.Minute
	stateKeyPrefix = "oauth_state:"
)

var (
	// ErrInvalidState is returned when the callback state is unknown, expired or already used.
	ErrInvalidState = errors.New("oauth: invalid or expired state")
	// ErrMissingSubject is returned when the userinfo response has no subject.
	ErrMissingSubject = errors.New("oauth: google ID (sub) is missing")
)

// Profile is the subset of the Google userinfo response used for provisioning.
type Profile struct {
	Subject      string
	Name         string
	Email        string
	Picture      string
	RefreshToken string
	TokenExpiry  *time.Time
}

// Google wraps an oauth2.Config for Google. State values are single-use and kept in the cache.
type Google struct {
	conf        *oauth2.Config
	states      cache.Client
	userInfoURL string
}

// NewGoogle returns a client for the given credentials and callback URL.
func NewGoogle(clientID, clientSecret, callbackURL string, states cache.Client) *Google {
	return &Google{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
		},
		states:      states,
		userInfoURL: userInfoURL,
	}
}

// AuthURL creates and stores a fresh state value and returns the Google consent URL.
func (g *Google) AuthURL(ctx context.Context) (string, error) {
	state, err := newState()
	if err != nil {
		return "", err
	}
	if err := g.states.Set(ctx, stateKeyPrefix+state, "1", stateTTL); err != nil {
		return "", fmt.Errorf("oauth: store state: %w", err)
	}
	return g.conf.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Exchange consumes state, trades code for a token and fetches the userinfo profile.
func (g *Google) Exchange(ctx context.Context, state, code string) (*Profile, error) {
	if state == "" {
		return nil, ErrInvalidState
	}
	if _, err := g.states.Take(ctx, stateKeyPrefix+state); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("oauth: load state: %w", err)
	}
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth: exchange: %w", err)
	}
	p, err := g.fetchProfile(ctx, tok)
	if err != nil {
		return nil, err
	}
	p.RefreshToken = tok.RefreshToken
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC()
		p.TokenExpiry = &exp
	}
	return p, nil
}

func (g *Google) fetchProfile(ctx context.Context, tok *oauth2.Token) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("oauth: userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oauth: userinfo returned %s", resp.Status)
	}
	var info struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("oauth: decode userinfo: %w", err)
	}
	if info.Sub == "" {
		return nil, ErrMissingSubject
	}
	return &Profile{Subject: info.Sub, Name: info.Name, Email: info.Email, Picture: info.Picture}, nil
}

func newState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
