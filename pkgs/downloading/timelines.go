package downloading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/WangWilly/xCrawl/internal/storage"
	"github.com/WangWilly/xCrawl/pkgs/clients/twitterclient"
	"github.com/WangWilly/xCrawl/pkgs/crawler"
	"github.com/WangWilly/xCrawl/pkgs/model"
	"github.com/WangWilly/xCrawl/pkgs/utils"
	log "github.com/sirupsen/logrus"
)

// DownloadTimelines saves the full timeline of every name. Existing files are
// skipped, unless incremental is set: then only tweets newer than the last
// crawl are fetched and put in front of the saved ones.
func (d *Downloader) DownloadTimelines(ctx context.Context, names []string, incremental bool) (Summary, error) {
	counters := utils.NewCounters()
	err := d.forEach(ctx, names, func(ctx context.Context, name string) error {
		outcome, err := d.downloadTimeline(ctx, name, incremental)
		if err != nil {
			return err
		}
		counters.Inc(outcome)
		return nil
	})
	return summaryOf(counters), err
}

func (d *Downloader) downloadTimeline(ctx context.Context, name string, incremental bool) (string, error) {
	logger := d.logger.WithField("screen_name", name)
	path := d.store.TweetsFile(name)

	exists, size, err := d.store.StatTimeline(name)
	if err != nil {
		return "", err
	}
	if exists && (!incremental || size == 0) {
		logger.Debugln("timeline already downloaded, skipping")
		return countSkipped, nil
	}

	var existing []json.RawMessage
	var sinceID uint64
	if exists {
		existing, err = storage.ReadTweets(path)
		if err != nil {
			return "", err
		}
		sinceID, err = d.lastNewestID(ctx, name, existing)
		if err != nil {
			return "", err
		}
	}

	logger.WithField("since_id", sinceID).Infoln("retrieving timeline")
	tweets, err := d.crawler.FetchAll(ctx, name, sinceID)
	if err != nil {
		return d.unreachable(ctx, logger, name, model.KIND_TIMELINE, !exists, err)
	}

	newestID := sinceID
	for _, tweet := range tweets {
		id, err := crawler.TweetID(tweet)
		if err != nil {
			return "", fmt.Errorf("timeline of %s: %w", name, err)
		}
		newestID = max(newestID, id)
	}

	all := append(tweets, existing...)
	if len(tweets) > 0 || !exists {
		if err := d.store.SaveTimeline(name, all); err != nil {
			return "", err
		}
	}
	logger.WithFields(log.Fields{
		"new":   len(tweets),
		"total": len(all),
	}).Infoln("timeline saved")

	err = d.record(ctx, &model.Crawl{
		ScreenName: name,
		Kind:       model.KIND_TIMELINE,
		Status:     model.STATUS_OK,
		TweetCount: len(all),
		NewestId:   int64(newestID),
		Path:       path,
	})
	if err != nil {
		return "", err
	}
	return countDownloaded, nil
}

// lastNewestID prefers the ledger and falls back to the newest saved tweet.
func (d *Downloader) lastNewestID(ctx context.Context, name string, existing []json.RawMessage) (uint64, error) {
	last, err := d.ledger.Last(ctx, name, model.KIND_TIMELINE)
	if err != nil {
		return 0, err
	}
	if last != nil && last.Status == model.STATUS_OK && last.NewestId > 0 {
		return uint64(last.NewestId), nil
	}

	var newest uint64
	for _, tweet := range existing {
		id, err := crawler.TweetID(tweet)
		if err != nil {
			return 0, fmt.Errorf("saved timeline of %s: %w", name, err)
		}
		newest = max(newest, id)
	}
	return newest, nil
}

// unreachable turns a gone or denied user into a recorded outcome. Any other
// error is returned and stops the run.
func (d *Downloader) unreachable(ctx context.Context, logger *log.Entry, name string, kind string, markFile bool, err error) (string, error) {
	var status, outcome string
	switch {
	case errors.Is(err, twitterclient.ErrResourceGone):
		logger.Warnf("user '%s' most likely no longer exists", name)
		status, outcome = model.STATUS_GONE, countGone
	case errors.Is(err, twitterclient.ErrAccessDenied):
		logger.Warnf("user '%s' is most likely no longer publicly accessible", name)
		status, outcome = model.STATUS_DENIED, countDenied
	default:
		return "", fmt.Errorf("%s of %s: %w", kind, name, err)
	}

	if markFile {
		if err := d.store.MarkUnavailable(name); err != nil {
			return "", err
		}
	}
	err = d.record(ctx, &model.Crawl{
		ScreenName: name,
		Kind:       kind,
		Status:     status,
		Path:       d.store.TweetsFile(name),
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}
