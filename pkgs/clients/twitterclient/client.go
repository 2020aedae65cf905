package twitterclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/WangWilly/xCrawl/pkgs/utils"
	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

////////////////////////////////////////////////////////////////////////////////

// API is the remote surface the crawler consumes.
type API interface {
	Get(ctx context.Context, endpoint string, params url.Values) ([]byte, error)
	RateLimitStatus(ctx context.Context, resources ...string) (RateLimitStatus, error)
}

var _ API = (*Client)(nil)

////////////////////////////////////////////////////////////////////////////////

// Client talks to the v1.1 REST API. Authentication lives in the http.Client
// passed to New.
type Client struct {
	restyClient *resty.Client
	requests    *utils.Counters
}

func New(httpClient *http.Client) *Client {
	var rc *resty.Client
	if httpClient == nil {
		rc = resty.New()
	} else {
		rc = resty.NewWithClient(httpClient)
	}
	rc.SetBaseURL(API_BASE_URL)
	rc.SetHeader(HEADER_USER_AGENT, USER_AGENT)
	rc.SetTimeout(60 * time.Second)

	c := &Client{
		restyClient: rc,
		requests:    utils.NewCounters(),
	}
	c.setRequestCounting()
	return c
}

// NewWithCredentials builds the authenticated transport and the client on top of it.
func NewWithCredentials(ctx context.Context, creds Credentials) (*Client, error) {
	httpClient, err := NewHTTPClient(ctx, creds)
	if err != nil {
		return nil, err
	}
	return New(httpClient), nil
}

////////////////////////////////////////////////////////////////////////////////

func (c *Client) SetBaseURL(baseURL string) *Client {
	c.restyClient.SetBaseURL(baseURL)
	return c
}

func (c *Client) SetLogger(logger *log.Logger) *Client {
	c.restyClient.SetLogger(logger)
	return c
}

////////////////////////////////////////////////////////////////////////////////

// Get issues GET <endpoint>.json and returns the raw body. Failures are
// classified, see APIError and ErrEmptyResponse.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	logger := log.WithFields(log.Fields{
		"caller":   "Client.Get",
		"endpoint": endpoint,
	})

	req := c.restyClient.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParamsFromValues(params)
	}
	resp, err := req.Get(strings.TrimPrefix(endpoint, "/") + ".json")
	if err != nil {
		logger.WithError(err).Debugln("request failed")
		return nil, classifyTransportError(endpoint, err)
	}

	if resp.IsError() {
		apiErr := newAPIError(endpoint, resp.StatusCode(), resp.Body())
		logger.WithField("status", resp.StatusCode()).Debugln(apiErr.Message)
		return nil, apiErr
	}

	body := resp.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%s: %w", endpoint, ErrEmptyResponse)
	}
	return body, nil
}
