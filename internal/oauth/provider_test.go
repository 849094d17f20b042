package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/course-platform/internal/config"
)

func TestNormalizeGoogle_Fallbacks(t *testing.T) {
	full, err := normalizeGoogle(googleProfile{Sub: "g1", Email: "g@b.com", Name: "G", Picture: "https://img/g"})
	require.NoError(t, err)
	assert.Equal(t, "g1", full.ProviderAccountID)
	assert.Equal(t, "g@b.com", full.Email)
	assert.Equal(t, "G", full.Name)
	require.NotNil(t, full.Image)
	assert.Equal(t, "https://img/g", *full.Image)

	partial, err := normalizeGoogle(googleProfile{Sub: "g2", GivenName: "Gil", FamilyName: "Dong"})
	require.NoError(t, err)
	assert.Equal(t, "google_g2@no-email.com", partial.Email)
	assert.Equal(t, "Gil Dong", partial.Name)
	assert.Nil(t, partial.Image)

	empty, err := normalizeGoogle(googleProfile{Sub: "g3"})
	require.NoError(t, err)
	assert.Equal(t, "Google User", empty.Name)
}

func TestNormalizeGitHub_Fallbacks(t *testing.T) {
	id, err := normalizeGitHub(githubProfile{ID: 42, Login: "octocat"})
	require.NoError(t, err)
	assert.Equal(t, ProviderGitHub, id.Provider)
	assert.Equal(t, "42", id.ProviderAccountID)
	assert.Equal(t, "octocat", id.Name)
	assert.Equal(t, "github_42@no-email.com", id.Email)

	named, err := normalizeGitHub(githubProfile{ID: 43, Login: "octo", Name: "Octo Cat", Email: "o@b.com", AvatarURL: "https://a"})
	require.NoError(t, err)
	assert.Equal(t, "Octo Cat", named.Name)
	assert.Equal(t, "o@b.com", named.Email)
	require.NotNil(t, named.Image)
}

func TestPrimaryGitHubEmail(t *testing.T) {
	emails := []githubEmail{
		{Email: "unverified@b.com", Primary: true, Verified: false},
		{Email: "secondary@b.com", Primary: false, Verified: true},
		{Email: "primary@b.com", Primary: true, Verified: true},
	}
	assert.Equal(t, "primary@b.com", primaryGitHubEmail(emails))
	assert.Equal(t, "", primaryGitHubEmail(emails[:2]))
}

func TestNormalizeKakao_Fallbacks(t *testing.T) {
	var p kakaoProfile
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1234}`), &p))

	id, err := normalizeKakao(p)
	require.NoError(t, err)
	assert.Equal(t, "1234", id.ProviderAccountID)
	assert.Equal(t, "kakao_1234@no-email.com", id.Email)
	assert.Equal(t, "Kakao User", id.Name)
	assert.Nil(t, id.Image)

	p = kakaoProfile{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 99,
		"kakao_account": {"email": "k@b.com", "profile": {"nickname": "acct", "profile_image_url": "https://acct"}}
	}`), &p))
	id, err = normalizeKakao(p)
	require.NoError(t, err)
	assert.Equal(t, "k@b.com", id.Email)
	assert.Equal(t, "acct", id.Name)
	require.NotNil(t, id.Image)
	assert.Equal(t, "https://acct", *id.Image)

	p = kakaoProfile{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 100,
		"properties": {"nickname": "prop", "profile_image": "https://prop"},
		"kakao_account": {"profile": {"nickname": "acct", "profile_image_url": "https://acct"}}
	}`), &p))
	id, err = normalizeKakao(p)
	require.NoError(t, err)
	assert.Equal(t, "prop", id.Name)
	assert.Equal(t, "https://prop", *id.Image)
}

func TestNormalize_RejectsMissingAccountID(t *testing.T) {
	_, err := normalizeGoogle(googleProfile{Email: "g@b.com"})
	assert.ErrorIs(t, err, ErrMissingAccountID)

	_, err = normalizeGitHub(githubProfile{Login: "octo", Email: "o@b.com"})
	assert.ErrorIs(t, err, ErrMissingAccountID)

	var p kakaoProfile
	require.NoError(t, json.Unmarshal([]byte(`{"kakao_account": {"email": "k@b.com"}}`), &p))
	_, err = normalizeKakao(p)
	assert.ErrorIs(t, err, ErrMissingAccountID)
}

func TestKakaoExchange_ProfileWithoutIDFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"t","token_type":"bearer"}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"kakao_account": {"email": "k@b.com"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewKakao(Config{ClientID: "c", ClientSecret: "s", TokenURL: srv.URL + "/token", ProfileURL: srv.URL + "/me"})

	id, err := p.Exchange(context.Background(), "code")
	assert.ErrorIs(t, err, ErrMissingAccountID)
	assert.Nil(t, id)
}

func TestGitHubExchange_FetchesPrimaryEmail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gh-access","token_type":"bearer","scope":"user:email"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gh-access", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id": 7, "login": "octo", "avatar_url": "https://avatar"}`))
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"email":"octo@b.com","primary":true,"verified":true}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewGitHub(Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/callback",
		AuthURL:      srv.URL + "/authorize",
		TokenURL:     srv.URL + "/token",
		ProfileURL:   srv.URL + "/user",
	})

	id, err := p.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, ProviderGitHub, id.Provider)
	assert.Equal(t, "7", id.ProviderAccountID)
	assert.Equal(t, "octo@b.com", id.Email)
	assert.Equal(t, "octo", id.Name)
	require.NotNil(t, id.AccessToken)
	assert.Equal(t, "gh-access", *id.AccessToken)
	assert.Nil(t, id.RefreshToken)
	require.NotNil(t, id.Scope)
	assert.Equal(t, "user:email", *id.Scope)
}

func TestExchange_ProfileErrorIsReturned(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"t","token_type":"bearer"}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewKakao(Config{ClientID: "c", ClientSecret: "s", TokenURL: srv.URL + "/token", ProfileURL: srv.URL + "/me"})

	_, err := p.Exchange(context.Background(), "code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kakao")
}

func TestGoogleAuthCodeURL(t *testing.T) {
	p := NewGoogle(Config{ClientID: "cid", ClientSecret: "s", RedirectURL: "http://localhost/cb"})

	u, err := url.Parse(p.AuthCodeURL("xyz"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "xyz", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Contains(t, q.Get("scope"), "email")
}

func TestFromConfig_RegistersConfiguredProvidersOnly(t *testing.T) {
	cfg := &config.Config{
		GoogleClientID: "g", GoogleClientSecret: "gs",
		KakaoClientID: "k", KakaoClientSecret: "ks",
		GitHubClientID: "only-id",
	}

	r := FromConfig(cfg)
	assert.Equal(t, []string{ProviderGoogle, ProviderKakao}, r.Names())

	_, ok := r.Get(ProviderGitHub)
	assert.False(t, ok)
	p, ok := r.Get(ProviderKakao)
	require.True(t, ok)
	assert.Equal(t, ProviderKakao, p.Name())
}
