package twitter

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mrjones/oauth"
)

const (
	BaseURL           = "https://api.twitter.com/2"
	RequestTokenURL   = "https://api.twitter.com/oauth/request_token"
	AuthorizeTokenURL = "https://api.twitter.com/oauth/authorize"
	AccessTokenURL    = "https://api.twitter.com/oauth/access_token"
)

// Authenticator produces an HTTP client for the configured credentials.
// A bearer token wins over user credentials since search is app-scoped.
type Authenticator struct {
	client      *http.Client
	bearerToken string
}

func NewAuthenticator(config *TwitterConfig) (*Authenticator, error) {
	if config.BearerToken != "" {
		return newAppAuthenticator(config.BearerToken, config.Timeout), nil
	}
	if config.HasWriteAccess() {
		return newUserAuthenticator(config)
	}
	return nil, fmt.Errorf("either OAuth 1.0a credentials or Bearer token must be provided")
}

func newAppAuthenticator(bearerToken string, timeout time.Duration) *Authenticator {
	return &Authenticator{
		client:      &http.Client{Timeout: timeout},
		bearerToken: bearerToken,
	}
}

func newUserAuthenticator(config *TwitterConfig) (*Authenticator, error) {
	consumer := oauth.NewConsumer(config.ConsumerKey, config.ConsumerSecret, oauth.ServiceProvider{
		RequestTokenUrl:   RequestTokenURL,
		AuthorizeTokenUrl: AuthorizeTokenURL,
		AccessTokenUrl:    AccessTokenURL,
	})
	consumer.HttpClient = &http.Client{Timeout: config.Timeout}

	client, err := consumer.MakeHttpClient(&oauth.AccessToken{
		Token:  config.AccessToken,
		Secret: config.AccessTokenSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth client: %w", err)
	}

	return &Authenticator{client: client}, nil
}

func (a *Authenticator) GetClient() *http.Client {
	return a.client
}

// SetAuthHeader adds the bearer header. The OAuth 1.0a client signs requests
// itself, so nothing is set in that case.
func (a *Authenticator) SetAuthHeader(req *http.Request) {
	if a.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+a.bearerToken)
	}
}
