package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/WangWilly/xCrawl/internal/storage"
	"github.com/WangWilly/xCrawl/pkgs/clients/twitterclient"
	"github.com/WangWilly/xCrawl/pkgs/config"
	"github.com/WangWilly/xCrawl/pkgs/crawler"
	"github.com/WangWilly/xCrawl/pkgs/database"
	"github.com/WangWilly/xCrawl/pkgs/downloading"
	"github.com/WangWilly/xCrawl/pkgs/logger"
	"github.com/WangWilly/xCrawl/pkgs/metrics"
	"github.com/WangWilly/xCrawl/pkgs/ratelimited"
	"github.com/WangWilly/xCrawl/pkgs/repos/crawlrepo"
	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const APP_DIR = ".x_crawl"

////////////////////////////////////////////////////////////////////////////////
// Application Bootstrap
////////////////////////////////////////////////////////////////////////////////

// app holds what every command of one run shares.
type app struct {
	ctx    context.Context
	runID  string
	dir    string
	conf   *config.Config
	logger *log.Entry

	closers []func() error
}

func appRootPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home path: %w", err)
	}
	return filepath.Join(home, APP_DIR), nil
}

func (a *app) confPath() string {
	if flags.conf != "" {
		return flags.conf
	}
	return filepath.Join(a.dir, "conf.yaml")
}

// setup prepares logging for the command. With needConfig the config is read,
// or prompted for on first use, and validated.
func setup(cmd *cobra.Command, needConfig bool) (*app, error) {
	dir, err := appRootPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to make app dir: %w", err)
	}

	a := &app{dir: dir, runID: uuid.NewString()}

	logFile, err := os.OpenFile(filepath.Join(dir, "x_crawl.log"), os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	a.closers = append(a.closers, logFile.Close)
	logger.InitLogger(flags.debug, logFile)
	a.logger = logger.ForRun(a.runID, cmd.Name())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	a.ctx = ctx
	a.closers = append(a.closers, func() error { stop(); return nil })

	if !needConfig {
		return a, nil
	}

	conf, err := config.ReadConfig(a.confPath())
	if os.IsNotExist(err) {
		conf, err = config.PromptConfig(a.confPath())
	}
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flags.root != "" {
		conf.RootPath = flags.root
	}
	conf.ResolveEnv()
	if err := conf.Validate(); err != nil {
		a.Close()
		return nil, err
	}
	a.conf = conf
	a.logger.Infoln("config is loaded")
	return a, nil
}

// Close releases everything setup and the builders opened, last first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.WithError(err).Warnln("failed to close")
		}
	}
	a.closers = nil
}

////////////////////////////////////////////////////////////////////////////////
// Crawl Wiring
////////////////////////////////////////////////////////////////////////////////

type crawlKit struct {
	client     *twitterclient.Client
	store      *storage.StorePath
	downloader *downloading.Downloader
}

// crawl builds the client, one rate limited endpoint per API endpoint, the
// ledger and the downloader over them.
func (a *app) crawl() (*crawlKit, error) {
	client, err := twitterclient.NewWithCredentials(a.ctx, a.conf.TwitterCredentials())
	if err != nil {
		return nil, err
	}

	clientLogFile, err := os.OpenFile(filepath.Join(a.dir, "client.log"), os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	a.closers = append(a.closers, clientLogFile.Close)
	client.SetLogger(logger.NewClientLogger(clientLogFile))

	opts := []ratelimited.Option{
		ratelimited.WithLogger(a.logger),
		ratelimited.WithPacing(rate.Limit(a.conf.Crawl.PacingPerSecond)),
	}
	endpoints := map[string]*ratelimited.Endpoint{}
	for _, name := range []string{
		twitterclient.ENDPOINT_USER_TIMELINE,
		twitterclient.ENDPOINT_FRIENDS_IDS,
		twitterclient.ENDPOINT_FOLLOWERS_IDS,
		twitterclient.ENDPOINT_USERS_LOOKUP,
	} {
		ep, err := ratelimited.New(a.ctx, client, name, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to read the rate limit of %s: %w", name, err)
		}
		endpoints[name] = ep
	}

	store, err := storage.NewStorePath(a.conf.RootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to make store dir: %w", err)
	}

	db, err := database.ConnectWithConfig(a.conf.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	a.logger.Infoln("database is connected")

	metrics.Serve(a.ctx, a.conf.MetricsAddr)

	downloader := downloading.NewDownloader(
		downloading.Config{
			MaxDownloadRoutine: a.conf.Crawl.Workers,
			RunID:              a.runID,
		},
		crawler.NewTimelineCrawler(endpoints[twitterclient.ENDPOINT_USER_TIMELINE], a.logger),
		crawler.NewFriendFollowerFinder(
			endpoints[twitterclient.ENDPOINT_FRIENDS_IDS],
			endpoints[twitterclient.ENDPOINT_FOLLOWERS_IDS],
			endpoints[twitterclient.ENDPOINT_USERS_LOOKUP],
			a.logger,
		),
		store,
		crawlrepo.NewLedger(db),
		a.logger,
	)
	return &crawlKit{client: client, store: store, downloader: downloader}, nil
}

// finish prints the summary and, in debug mode, the request totals.
func (a *app) finish(kit *crawlKit, summary downloading.Summary, out io.Writer) {
	printSummary(out, summary)
	if flags.debug {
		kit.client.ReportRequestCount()
	}
}

func printSummary(out io.Writer, s downloading.Summary) {
	fmt.Fprintf(out, "%s %d  %s %d  %s %d  %s %d\n",
		color.FgGreen.Render("downloaded"), s.Downloaded,
		color.FgGray.Render("skipped"), s.Skipped,
		color.FgYellow.Render("gone"), s.Gone,
		color.FgRed.Render("denied"), s.Denied,
	)
}
