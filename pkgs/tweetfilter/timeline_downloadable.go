package tweetfilter

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/WangWilly/xCrawl/pkgs/clients/twitterclient"
	log "github.com/sirupsen/logrus"
)

////////////////////////////////////////////////////////////////////////////////

// PageFetcher fetches the most recent tweets of a user in one call.
type PageFetcher interface {
	FetchPage(ctx context.Context, screenName string, count int) ([]json.RawMessage, error)
}

// TimelineSink persists downloaded timelines by screen name.
type TimelineSink interface {
	// StatTimeline reports whether a timeline file exists and its size.
	StatTimeline(screenName string) (exists bool, size int64, err error)
	SaveTimeline(screenName string, tweets []json.RawMessage) error
	// MarkUnavailable leaves an empty timeline so the user is not retried.
	MarkUnavailable(screenName string) error
}

const DownloadablePageSize = 200

// TimelineDownloadable accepts a tweet when the recent timeline of its author
// could be downloaded and holds at least minTweets tweets. Downloading is a
// side effect: the timeline is saved, or an empty marker is left behind.
type TimelineDownloadable struct {
	ctx       context.Context
	fetcher   PageFetcher
	sink      TimelineSink
	minTweets int
	logger    *log.Entry
}

func NewTimelineDownloadable(ctx context.Context, fetcher PageFetcher, sink TimelineSink, minTweets int, logger *log.Entry) *TimelineDownloadable {
	if logger == nil {
		logger = log.WithField("caller", "TimelineDownloadable")
	}
	return &TimelineDownloadable{
		ctx:       ctx,
		fetcher:   fetcher,
		sink:      sink,
		minTweets: minTweets,
		logger:    logger,
	}
}

func (f *TimelineDownloadable) Filter(raw []byte) (bool, error) {
	name, err := field(raw, "user.screen_name")
	if err != nil {
		return false, err
	}
	screenName := name.String()
	logger := f.logger.WithField("screen_name", screenName)

	exists, size, err := f.sink.StatTimeline(screenName)
	if err != nil {
		return false, err
	}
	if exists {
		logger.Infoln("timeline already downloaded, not fetching again")
		return size > 0, nil
	}

	logger.Infoln("retrieving tweets")
	tweets, err := f.fetcher.FetchPage(f.ctx, screenName, DownloadablePageSize)
	if err != nil {
		if !twitterclient.IsUnreachable(err) {
			return false, err
		}
		if errors.Is(err, twitterclient.ErrResourceGone) {
			logger.Warnf("user '%s' most likely no longer exists", screenName)
		} else {
			logger.Warnf("user '%s' is most likely no longer publicly accessible", screenName)
		}
		return false, f.sink.MarkUnavailable(screenName)
	}

	if len(tweets) < f.minTweets {
		logger.Infof("user '%s' has only %d tweets, threshold is %d", screenName, len(tweets), f.minTweets)
		return false, f.sink.MarkUnavailable(screenName)
	}
	if err := f.sink.SaveTimeline(screenName, tweets); err != nil {
		return false, err
	}
	return true, nil
}
