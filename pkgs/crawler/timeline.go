package crawler

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	log "github.com/sirupsen/logrus"
)

////////////////////////////////////////////////////////////////////////////////

const (
	// TimelinePageSize is the count requested per statuses/user_timeline call.
	TimelinePageSize = 200
	// TimelineTailThreshold ends pagination: a page shorter than this is the
	// last one. Deleted and withheld tweets make full pages come back short.
	TimelineTailThreshold = 100
)

// TimelineCrawler pages through statuses/user_timeline.
type TimelineCrawler struct {
	endpoint DataGetter
	logger   *log.Entry
}

func NewTimelineCrawler(endpoint DataGetter, logger *log.Entry) *TimelineCrawler {
	if logger == nil {
		logger = log.WithField("caller", "TimelineCrawler")
	}
	return &TimelineCrawler{
		endpoint: endpoint,
		logger:   logger,
	}
}

////////////////////////////////////////////////////////////////////////////////

// FetchAll returns every tweet of screenName newer than sinceID (0 for no
// bound), newest first.
func (c *TimelineCrawler) FetchAll(ctx context.Context, screenName string, sinceID uint64) ([]json.RawMessage, error) {
	logger := c.logger.WithFields(log.Fields{
		"screen_name": screenName,
		"since_id":    sinceID,
	})

	params := timelineParams(screenName, TimelinePageSize)
	if sinceID > 0 {
		params.Set("since_id", strconv.FormatUint(sinceID, 10))
	}

	page, err := c.fetch(ctx, params)
	if err != nil {
		return nil, err
	}
	tweets := page

	for len(page) >= TimelineTailThreshold {
		lastID, err := TweetID(page[len(page)-1])
		if err != nil {
			return nil, err
		}
		if lastID == 0 {
			break
		}

		maxID := lastID - 1
		params.Set("max_id", strconv.FormatUint(maxID, 10))
		logger.WithFields(log.Fields{
			"max_id":  maxID,
			"fetched": len(tweets),
		}).Debugln("fetching next timeline page")

		page, err = c.fetch(ctx, params)
		if err != nil {
			return nil, err
		}
		tweets = append(tweets, page...)
	}

	logger.WithField("tweets", len(tweets)).Infoln("timeline fetched")
	return tweets, nil
}

// FetchPage returns the count most recent tweets of screenName in one call.
func (c *TimelineCrawler) FetchPage(ctx context.Context, screenName string, count int) ([]json.RawMessage, error) {
	return c.fetch(ctx, timelineParams(screenName, count))
}

////////////////////////////////////////////////////////////////////////////////

func (c *TimelineCrawler) fetch(ctx context.Context, params url.Values) ([]json.RawMessage, error) {
	body, err := c.endpoint.GetData(ctx, params)
	if err != nil {
		return nil, err
	}
	return splitArray(body)
}

func timelineParams(screenName string, count int) url.Values {
	return url.Values{
		"screen_name": {screenName},
		"count":       {strconv.Itoa(count)},
	}
}
