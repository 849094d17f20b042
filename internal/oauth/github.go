package oauth

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/oauth2/endpoints"
)

const (
	ProviderGitHub = "github"

	defaultGitHubUserURL = "https://api.github.com/user"
)

type githubProfile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func NewGitHub(cfg Config) Provider {
	return newProvider(ProviderGitHub, cfg, endpoints.GitHub, defaultGitHubUserURL,
		[]string{"user:email"}, fetchGitHubProfile)
}

// fetchGitHubProfile falls back to the /emails listing when the public
// profile hides the address.
func fetchGitHubProfile(ctx context.Context, client *http.Client, url string) (*Identity, error) {
	var profile githubProfile
	if err := getJSON(ctx, client, url, &profile); err != nil {
		return nil, err
	}

	if profile.Email == "" {
		var emails []githubEmail
		if err := getJSON(ctx, client, url+"/emails", &emails); err != nil {
			slog.Warn("github email listing failed", "github_id", profile.ID, "error", err)
		} else {
			profile.Email = primaryGitHubEmail(emails)
		}
	}
	return normalizeGitHub(profile)
}

func primaryGitHubEmail(emails []githubEmail) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	return ""
}

func normalizeGitHub(p githubProfile) (*Identity, error) {
	if p.ID == 0 {
		return nil, ErrMissingAccountID
	}
	id := strconv.FormatInt(p.ID, 10)
	return &Identity{
		Provider:          ProviderGitHub,
		ProviderAccountID: id,
		Email:             firstNonEmpty(p.Email, placeholderEmail(ProviderGitHub, id)),
		Name:              firstNonEmpty(p.Name, p.Login),
		Image:             optional(p.AvatarURL),
	}, nil
}
