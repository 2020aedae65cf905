package twitterclient

import (
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

func (c *Client) setRequestCounting() {
	c.restyClient.OnBeforeRequest(func(client *resty.Client, req *resty.Request) error {
		u, err := url.Parse(req.URL)
		if err != nil {
			return err
		}
		path := strings.TrimSuffix(strings.TrimPrefix(u.Path, "/"), ".json")
		c.requests.Inc(path)
		return nil
	})
}

// RequestCount returns how many requests were sent to endpoint.
func (c *Client) RequestCount(endpoint string) int64 {
	return c.requests.Get(endpoint)
}

// ReportRequestCount logs the request totals per endpoint.
func (c *Client) ReportRequestCount() {
	names, values := c.requests.Snapshot()
	for _, name := range names {
		log.WithFields(log.Fields{
			"endpoint": name,
			"count":    values[name],
		}).Debugln("request count")
	}
}
