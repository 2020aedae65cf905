package twitterclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

////////////////////////////////////////////////////////////////////////////////

// Window is the budget of one endpoint for the current rate limit window.
type Window struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// RateLimitStatus maps "/family/name" paths to their window.
type RateLimitStatus map[string]Window

// Window looks up the window of an endpoint such as "statuses/user_timeline".
func (s RateLimitStatus) Window(endpoint string) (Window, bool) {
	w, ok := s["/"+strings.TrimPrefix(endpoint, "/")]
	return w, ok
}

// ResourceFamily returns the family an endpoint belongs to, "friends" for "friends/ids".
func ResourceFamily(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "/")
	family, _, _ := strings.Cut(endpoint, "/")
	return family
}

////////////////////////////////////////////////////////////////////////////////

// RateLimitStatus fetches application/rate_limit_status for the given families.
func (c *Client) RateLimitStatus(ctx context.Context, resources ...string) (RateLimitStatus, error) {
	params := url.Values{}
	if len(resources) > 0 {
		params.Set("resources", strings.Join(resources, ","))
	}

	body, err := c.Get(ctx, ENDPOINT_RATE_LIMIT_STATUS, params)
	if err != nil {
		return nil, err
	}
	return ParseRateLimitStatus(body)
}

// ParseRateLimitStatus reads the resources object of a rate_limit_status body.
func ParseRateLimitStatus(body []byte) (RateLimitStatus, error) {
	resources := gjson.GetBytes(body, "resources")
	if !resources.IsObject() {
		return nil, fmt.Errorf("rate limit status: resources object missing")
	}

	status := RateLimitStatus{}
	resources.ForEach(func(_, family gjson.Result) bool {
		family.ForEach(func(path, w gjson.Result) bool {
			status[path.String()] = Window{
				Limit:     int(w.Get("limit").Int()),
				Remaining: int(w.Get("remaining").Int()),
				Reset:     time.Unix(w.Get("reset").Int(), 0),
			}
			return true
		})
		return true
	})
	return status, nil
}
