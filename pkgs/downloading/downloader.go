package downloading

import (
	"context"
	"encoding/json"
	"runtime"

	"github.com/WangWilly/xCrawl/internal/storage"
	"github.com/WangWilly/xCrawl/pkgs/model"
	"github.com/WangWilly/xCrawl/pkgs/utils"
	"github.com/WangWilly/xCrawl/pkgs/workers"
	log "github.com/sirupsen/logrus"
)

////////////////////////////////////////////////////////////////////////////////

type TimelineFetcher interface {
	FetchAll(ctx context.Context, screenName string, sinceID uint64) ([]json.RawMessage, error)
	FetchPage(ctx context.Context, screenName string, count int) ([]json.RawMessage, error)
}

type MutualFinder interface {
	MutualScreenNames(ctx context.Context, screenName string) ([]string, error)
}

// Ledger remembers the last crawl of every screen name.
type Ledger interface {
	Record(ctx context.Context, crawl *model.Crawl) error
	Last(ctx context.Context, screenName string, kind string) (*model.Crawl, error)
}

type Config struct {
	MaxDownloadRoutine int
	RunID              string
}

// Summary counts the screen names handled by one download.
type Summary struct {
	Downloaded int64
	Skipped    int64
	Gone       int64
	Denied     int64
}

func (s Summary) add(o Summary) Summary {
	return Summary{
		Downloaded: s.Downloaded + o.Downloaded,
		Skipped:    s.Skipped + o.Skipped,
		Gone:       s.Gone + o.Gone,
		Denied:     s.Denied + o.Denied,
	}
}

const (
	countDownloaded = "downloaded"
	countSkipped    = "skipped"
	countGone       = "gone"
	countDenied     = "denied"
)

func summaryOf(counters *utils.Counters) Summary {
	return Summary{
		Downloaded: counters.Get(countDownloaded),
		Skipped:    counters.Get(countSkipped),
		Gone:       counters.Get(countGone),
		Denied:     counters.Get(countDenied),
	}
}

////////////////////////////////////////////////////////////////////////////////

type Downloader struct {
	cfg Config

	crawler TimelineFetcher
	finder  MutualFinder
	store   *storage.StorePath
	ledger  Ledger
	logger  *log.Entry
}

// NewDownloader wires the crawlers to the output tree. ledger may be nil.
func NewDownloader(cfg Config, crawler TimelineFetcher, finder MutualFinder, store *storage.StorePath, ledger Ledger, logger *log.Entry) *Downloader {
	if cfg.MaxDownloadRoutine <= 0 {
		cfg.MaxDownloadRoutine = min(8, runtime.GOMAXPROCS(0))
	}
	if ledger == nil {
		ledger = nopLedger{}
	}
	if logger == nil {
		logger = log.WithField("caller", "Downloader")
	}
	return &Downloader{
		cfg:     cfg,
		crawler: crawler,
		finder:  finder,
		store:   store,
		ledger:  ledger,
		logger:  logger,
	}
}

// forEach runs fn over the distinct names on the worker pool. The first error
// stops the run.
func (d *Downloader) forEach(ctx context.Context, names []string, fn func(ctx context.Context, name string) error) error {
	names = distinct(names)
	if len(names) == 0 {
		return nil
	}

	worker := workers.NewSimpleWorker[string](min(len(names), d.cfg.MaxDownloadRoutine))
	stats, err := worker.Process(ctx, workers.SliceProducer(names), fn, d.cfg.MaxDownloadRoutine)
	d.logger.WithFields(log.Fields{
		"produced": stats.Produced,
		"consumed": stats.Consumed,
		"duration": stats.Duration,
	}).Debugln("worker pool finished")
	return err
}

func (d *Downloader) record(ctx context.Context, crawl *model.Crawl) error {
	crawl.RunId = d.cfg.RunID
	return d.ledger.Record(ctx, crawl)
}

////////////////////////////////////////////////////////////////////////////////

type nopLedger struct{}

func (nopLedger) Record(context.Context, *model.Crawl) error { return nil }

func (nopLedger) Last(context.Context, string, string) (*model.Crawl, error) { return nil, nil }

func distinct(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	res := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		res = append(res, name)
	}
	return res
}
