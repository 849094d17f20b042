package oauth

import (
	"sort"
	"sync"

	"github.com/ahmetcoskunkizilkaya/course-platform/internal/config"
)

type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// FromConfig registers every provider whose client credentials are set.
func FromConfig(cfg *config.Config) *Registry {
	r := NewRegistry()

	google := Config{ClientID: cfg.GoogleClientID, ClientSecret: cfg.GoogleClientSecret, RedirectURL: cfg.GoogleCallbackURL}
	if google.Enabled() {
		r.Register(NewGoogle(google))
	}
	github := Config{ClientID: cfg.GitHubClientID, ClientSecret: cfg.GitHubClientSecret, RedirectURL: cfg.GitHubCallbackURL}
	if github.Enabled() {
		r.Register(NewGitHub(github))
	}
	kakao := Config{ClientID: cfg.KakaoClientID, ClientSecret: cfg.KakaoClientSecret, RedirectURL: cfg.KakaoCallbackURL}
	if kakao.Enabled() {
		r.Register(NewKakao(kakao))
	}
	return r
}

func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
