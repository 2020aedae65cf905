package downloading

import (
	"context"
	"fmt"

	"github.com/WangWilly/xCrawl/internal/storage"
	"github.com/WangWilly/xCrawl/pkgs/model"
	"github.com/WangWilly/xCrawl/pkgs/utils"
)

// DownloadFriendFollowers saves the mutual friend-followers of every name to
// its .ff file and then downloads their timelines. Saved .ff files are reused.
func (d *Downloader) DownloadFriendFollowers(ctx context.Context, names []string) (Summary, error) {
	mutuals := utils.NewSyncMap[string, struct{}]()
	counters := utils.NewCounters()

	err := d.forEach(ctx, names, func(ctx context.Context, name string) error {
		found, downloaded, err := d.friendFollowers(ctx, name)
		if err != nil {
			return err
		}
		if downloaded {
			counters.Inc(countDownloaded)
		} else {
			counters.Inc(countSkipped)
		}
		for _, mutual := range found {
			mutuals.Store(mutual, struct{}{})
		}
		return nil
	})
	ffSummary := summaryOf(counters)
	if err != nil {
		return ffSummary, err
	}

	all := []string{}
	mutuals.Range(func(name string, _ struct{}) bool {
		all = append(all, name)
		return true
	})
	d.logger.WithField("count", len(all)).Infoln("downloading timelines of friend-followers")

	timelineSummary, err := d.DownloadTimelines(ctx, all, false)
	return ffSummary.add(timelineSummary), err
}

func (d *Downloader) friendFollowers(ctx context.Context, name string) ([]string, bool, error) {
	logger := d.logger.WithField("screen_name", name)
	path := d.store.FFFile(name)

	if storage.Exists(path) {
		logger.Debugln("friend-followers already downloaded")
		found, err := storage.ReadScreenNames(path)
		return found, false, err
	}

	logger.Infoln("retrieving friend-followers")
	found, err := d.finder.MutualScreenNames(ctx, name)
	if err != nil {
		return nil, false, fmt.Errorf("friend-followers of %s: %w", name, err)
	}
	if err := storage.WriteScreenNames(path, found); err != nil {
		return nil, false, err
	}

	err = d.record(ctx, &model.Crawl{
		ScreenName: name,
		Kind:       model.KIND_FF,
		Status:     model.STATUS_OK,
		Path:       path,
	})
	return found, true, err
}
