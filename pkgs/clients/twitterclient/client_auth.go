package twitterclient

import (
	"context"
	"net/http"

	"github.com/dghubble/oauth1"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

////////////////////////////////////////////////////////////////////////////////

// Credentials is the key tuple handed out by the developer portal.
type Credentials struct {
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
}

// UserContext reports whether the tuple carries an access token pair.
func (c Credentials) UserContext() bool {
	return c.AccessToken != "" && c.AccessTokenSecret != ""
}

// NewHTTPClient returns an http.Client that signs every request. With an access
// token pair it signs with OAuth 1.0a user context, otherwise it trades the
// consumer pair for an app-only bearer token.
func NewHTTPClient(ctx context.Context, creds Credentials) (*http.Client, error) {
	if creds.ConsumerKey == "" || creds.ConsumerSecret == "" {
		return nil, ErrMissingCredentials
	}

	if creds.UserContext() {
		conf := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
		return conf.Client(ctx, oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)), nil
	}

	conf := &clientcredentials.Config{
		ClientID:     creds.ConsumerKey,
		ClientSecret: creds.ConsumerSecret,
		TokenURL:     OAUTH2_TOKEN_URL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	return conf.Client(ctx), nil
}
