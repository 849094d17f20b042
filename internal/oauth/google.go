package oauth

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	ProviderGoogle = "google"

	defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

type googleProfile struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

func NewGoogle(cfg Config) Provider {
	p := newProvider(ProviderGoogle, cfg, endpoints.Google, defaultGoogleUserInfoURL,
		[]string{"openid", "email", "profile"}, fetchGoogleProfile)
	p.opts = []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	return p
}

func fetchGoogleProfile(ctx context.Context, client *http.Client, url string) (*Identity, error) {
	var profile googleProfile
	if err := getJSON(ctx, client, url, &profile); err != nil {
		return nil, err
	}
	return normalizeGoogle(profile)
}

func normalizeGoogle(p googleProfile) (*Identity, error) {
	if strings.TrimSpace(p.Sub) == "" {
		return nil, ErrMissingAccountID
	}
	fullName := strings.TrimSpace(p.GivenName + " " + p.FamilyName)
	return &Identity{
		Provider:          ProviderGoogle,
		ProviderAccountID: p.Sub,
		Email:             firstNonEmpty(p.Email, placeholderEmail(ProviderGoogle, p.Sub)),
		Name:              firstNonEmpty(p.Name, fullName, "Google User"),
		Image:             optional(p.Picture),
	}, nil
}
