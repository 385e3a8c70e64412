package fyers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// Session drives the Fyers auth-code → access-token exchange. The
// operator opens LoginURL in a browser, logs in, and pastes back the
// auth_code from the redirect; Exchange turns it into the day's
// access token.
type Session struct {
	ClientID    string
	SecretKey   string
	RedirectURI string

	http *resty.Client
}

func NewSession(clientID, secretKey, redirectURI string) *Session {
	http := resty.New()
	http.SetBaseURL(APIURL)
	http.SetTimeout(30 * time.Second)

	return &Session{
		ClientID:    clientID,
		SecretKey:   secretKey,
		RedirectURI: redirectURI,
		http:        http,
	}
}

// LoginURL is the browser URL that starts the Fyers OAuth flow.
func (s *Session) LoginURL() string {
	q := url.Values{}
	q.Set("client_id", s.ClientID)
	q.Set("redirect_uri", s.RedirectURI)
	q.Set("response_type", "code")
	q.Set("state", "optioneer")

	return APIURL + "/generate-authcode?" + q.Encode()
}

type tokenResponse struct {
	S           string `json:"s"`
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
}

// Exchange swaps the pasted auth code for an access token.
func (s *Session) Exchange(ctx context.Context, authCode string) (string, error) {
	// Fyers identifies the app by sha256(client_id:secret).
	sum := sha256.Sum256([]byte(s.ClientID + ":" + s.SecretKey))

	var out tokenResponse

	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"grant_type": "authorization_code",
			"appIdHash":  hex.EncodeToString(sum[:]),
			"code":       authCode,
		}).
		SetResult(&out).
		Post("/validate-authcode")
	if err != nil {
		return "", fmt.Errorf("fyers token exchange: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("fyers token exchange: status %s", resp.Status())
	}
	if out.S != "ok" || out.AccessToken == "" {
		return "", fmt.Errorf("fyers token exchange: %s", out.Message)
	}

	return out.AccessToken, nil
}
