package commands

import (
	"github.com/WangWilly/xCrawl/internal/storage"
	"github.com/WangWilly/xCrawl/pkgs/downloading"
	"github.com/spf13/cobra"
)

var timelinesCMD = &cobra.Command{
	Use:   "timelines <screen-names-file>",
	Short: "download the full timeline of every user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		incremental, err := cmd.Flags().GetBool("since")
		if err != nil {
			return err
		}
		return runCrawl(cmd, args[0], func(kit *crawlKit, a *app, names []string) (downloading.Summary, error) {
			return kit.downloader.DownloadTimelines(a.ctx, names, incremental)
		})
	},
}

var first200CMD = &cobra.Command{
	Use:   "first200 <screen-names-file>",
	Short: "download the latest 200 tweets of users above the tweet threshold",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minTweets, err := cmd.Flags().GetInt("min-tweets")
		if err != nil {
			return err
		}
		return runCrawl(cmd, args[0], func(kit *crawlKit, a *app, names []string) (downloading.Summary, error) {
			if minTweets <= 0 {
				minTweets = a.conf.Crawl.MinTweets
			}
			return kit.downloader.DownloadFirst200(a.ctx, names, minTweets)
		})
	},
}

var ffCMD = &cobra.Command{
	Use:   "ff <screen-names-file>",
	Short: "download mutual friend-followers of every user and their timelines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCrawl(cmd, args[0], func(kit *crawlKit, a *app, names []string) (downloading.Summary, error) {
			return kit.downloader.DownloadFriendFollowers(a.ctx, names)
		})
	},
}

func init() {
	timelinesCMD.Flags().Bool("since", false, "fetch only tweets newer than the saved ones")
	first200CMD.Flags().Int("min-tweets", 0, "tweet threshold (default crawl.min_tweets of the config)")
}

type crawlFunc func(kit *crawlKit, a *app, names []string) (downloading.Summary, error)

func runCrawl(cmd *cobra.Command, namesPath string, run crawlFunc) error {
	a, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	names, err := storage.ReadScreenNames(namesPath)
	if err != nil {
		return err
	}
	a.logger.WithField("count", len(names)).Infoln("screen names are loaded")

	kit, err := a.crawl()
	if err != nil {
		return err
	}

	summary, err := run(kit, a, names)
	a.finish(kit, summary, cmd.OutOrStdout())
	if err != nil {
		a.logger.WithError(err).Errorln("failed to download")
	}
	return err
}
