package oauth

import (
	"context"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
)

const (
	ProviderKakao = "kakao"

	defaultKakaoUserURL = "https://kapi.kakao.com/v2/user/me"
)

var kakaoEndpoint = oauth2.Endpoint{
	AuthURL:   "https://kauth.kakao.com/oauth/authorize",
	TokenURL:  "https://kauth.kakao.com/oauth/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

type kakaoProfile struct {
	ID         int64 `json:"id"`
	Properties *struct {
		Nickname       string `json:"nickname"`
		ProfileImage   string `json:"profile_image"`
		ThumbnailImage string `json:"thumbnail_image"`
	} `json:"properties"`
	KakaoAccount *struct {
		Email   string `json:"email"`
		Profile *struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

func NewKakao(cfg Config) Provider {
	return newProvider(ProviderKakao, cfg, kakaoEndpoint, defaultKakaoUserURL, nil, fetchKakaoProfile)
}

func fetchKakaoProfile(ctx context.Context, client *http.Client, url string) (*Identity, error) {
	var profile kakaoProfile
	if err := getJSON(ctx, client, url, &profile); err != nil {
		return nil, err
	}
	return normalizeKakao(profile)
}

func normalizeKakao(p kakaoProfile) (*Identity, error) {
	if p.ID == 0 {
		return nil, ErrMissingAccountID
	}
	id := strconv.FormatInt(p.ID, 10)

	var email, nickname, accountNickname, image, accountImage string
	if p.Properties != nil {
		nickname = p.Properties.Nickname
		image = p.Properties.ProfileImage
	}
	if p.KakaoAccount != nil {
		email = p.KakaoAccount.Email
		if p.KakaoAccount.Profile != nil {
			accountNickname = p.KakaoAccount.Profile.Nickname
			accountImage = p.KakaoAccount.Profile.ProfileImageURL
		}
	}

	return &Identity{
		Provider:          ProviderKakao,
		ProviderAccountID: id,
		Email:             firstNonEmpty(email, placeholderEmail(ProviderKakao, id)),
		Name:              firstNonEmpty(nickname, accountNickname, "Kakao User"),
		Image:             optional(firstNonEmpty(image, accountImage)),
	}, nil
}
