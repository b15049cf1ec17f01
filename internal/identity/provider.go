package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrUnauthenticated = errors.New("identity: invalid or expired session")

// Provider consulta o serviço de auth (API compatível com GoTrue).
type Provider struct {
	BaseURL string
	AnonKey string
	HTTP    *http.Client
}

func NewProvider(base, anonKey string) *Provider {
	return &Provider{
		BaseURL: strings.TrimRight(base, "/"),
		AnonKey: anonKey,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

type userResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		Name         string `json:"name"`
		FullName     string `json:"full_name"`
		AvatarURL    string `json:"avatar_url"`
		CustomClaims struct {
			GlobalName string `json:"global_name"`
		} `json:"custom_claims"`
	} `json:"user_metadata"`
}

// User valida o access token e devolve a sessão correspondente.
func (p *Provider) User(ctx context.Context, accessToken string) (*Session, error) {
	if accessToken == "" {
		return nil, ErrUnauthenticated
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", p.AnonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := p.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthenticated
	}
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("identity user http %d", res.StatusCode)
	}

	var out userResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	name := out.UserMetadata.Name
	if name == "" {
		name = out.UserMetadata.FullName
	}
	return &Session{
		UserID:      out.ID,
		Email:       out.Email,
		Name:        name,
		GlobalName:  out.UserMetadata.CustomClaims.GlobalName,
		AvatarURL:   out.UserMetadata.AvatarURL,
		AccessToken: accessToken,
	}, nil
}

// SignInURL é a URL de login OAuth com Discord que volta para redirectTo.
func (p *Provider) SignInURL(redirectTo string) string {
	return p.BaseURL + "/auth/v1/authorize?provider=discord&redirect_to=" + url.QueryEscape(redirectTo)
}
