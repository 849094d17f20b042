// Package oauth runs the authorization-code exchange against external
// identity providers and normalizes their profiles into an Identity.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// ErrMissingAccountID means the provider profile carried no account id. Such
// a profile cannot be told apart from any other and is rejected.
var ErrMissingAccountID = errors.New("profile has no account id")

// Identity is a provider profile after normalization. Email and Name are
// always populated; provider-specific fallbacks fill them when the profile
// leaves them out.
type Identity struct {
	Provider          string
	ProviderAccountID string
	Email             string
	Name              string
	Image             *string
	AccessToken       *string
	RefreshToken      *string
	TokenType         *string
	Scope             *string
	IDToken           *string
	ExpiresAt         *time.Time
}

type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// Config holds a provider's client registration. The URL fields override the
// provider defaults and exist for tests.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL    string
	TokenURL   string
	ProfileURL string
}

func (c Config) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// profileFunc fetches the provider profile with an authorized client and
// normalizes it.
type profileFunc func(ctx context.Context, client *http.Client, profileURL string) (*Identity, error)

type oauthProvider struct {
	name       string
	oauth2     *oauth2.Config
	profileURL string
	profile    profileFunc
	opts       []oauth2.AuthCodeOption
}

func newProvider(name string, cfg Config, endpoint oauth2.Endpoint, profileURL string, scopes []string, profile profileFunc) *oauthProvider {
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	if cfg.ProfileURL != "" {
		profileURL = cfg.ProfileURL
	}
	return &oauthProvider{
		name: name,
		oauth2: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		profileURL: profileURL,
		profile:    profile,
	}
}

func (p *oauthProvider) Name() string {
	return p.name
}

func (p *oauthProvider) AuthCodeURL(state string) string {
	return p.oauth2.AuthCodeURL(state, p.opts...)
}

func (p *oauthProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to exchange code: %w", p.name, err)
	}

	identity, err := p.profile(ctx, p.oauth2.Client(ctx, token), p.profileURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to fetch profile: %w", p.name, err)
	}

	identity.Provider = p.name
	attachToken(identity, token)
	return identity, nil
}

func attachToken(identity *Identity, token *oauth2.Token) {
	identity.AccessToken = optional(token.AccessToken)
	identity.RefreshToken = optional(token.RefreshToken)
	identity.TokenType = optional(token.TokenType)
	if scope, ok := token.Extra("scope").(string); ok {
		identity.Scope = optional(scope)
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		identity.IDToken = optional(idToken)
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		identity.ExpiresAt = &expiry
	}
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s returned status %d: %s", url, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func placeholderEmail(provider, id string) string {
	return provider + "_" + id + "@no-email.com"
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
