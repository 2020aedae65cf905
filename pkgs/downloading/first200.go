package downloading

import (
	"context"
	"encoding/json"

	"github.com/WangWilly/xCrawl/pkgs/model"
	"github.com/WangWilly/xCrawl/pkgs/tweetfilter"
	"github.com/WangWilly/xCrawl/pkgs/utils"
)

// DownloadFirst200 saves the most recent page of every name that has at least
// minTweets tweets. The rest are left with an empty file.
func (d *Downloader) DownloadFirst200(ctx context.Context, names []string, minTweets int) (Summary, error) {
	downloadable := tweetfilter.Counting("timeline_downloadable",
		tweetfilter.NewTimelineDownloadable(ctx, d.crawler, d.store, minTweets, d.logger))

	counters := utils.NewCounters()
	err := d.forEach(ctx, names, func(ctx context.Context, name string) error {
		exists, _, err := d.store.StatTimeline(name)
		if err != nil {
			return err
		}
		if exists {
			d.logger.WithField("screen_name", name).Debugln("timeline already downloaded, skipping")
			counters.Inc(countSkipped)
			return nil
		}

		record, err := json.Marshal(map[string]any{
			"user": map[string]string{"screen_name": name},
		})
		if err != nil {
			return err
		}

		accepted, err := downloadable.Filter(record)
		if err != nil {
			return err
		}

		status := model.STATUS_OK
		if accepted {
			counters.Inc(countDownloaded)
		} else {
			counters.Inc(countSkipped)
			status = model.STATUS_SKIPPED
		}
		return d.record(ctx, &model.Crawl{
			ScreenName: name,
			Kind:       model.KIND_FIRST_200,
			Status:     status,
			Path:       d.store.TweetsFile(name),
		})
	})
	return summaryOf(counters), err
}
