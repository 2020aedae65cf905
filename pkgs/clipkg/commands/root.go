// Package commands is the xcrawl command line.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCMD = &cobra.Command{
	Use:   "xcrawl",
	Short: "crawl and filter tweets",
	Long: `xcrawl downloads timelines and mutual friend-followers from the
Twitter v1.1 API within its rate limits, and filters line-delimited tweet
files.`,
	SilenceUsage: true,
}

type globalFlags struct {
	conf  string
	debug bool
	root  string
}

var flags globalFlags

func init() {
	rootCMD.PersistentFlags().StringVar(&flags.conf, "conf", "", "config file path (default ~/.x_crawl/conf.yaml)")
	rootCMD.PersistentFlags().BoolVar(&flags.debug, "debug", false, "display debug message")
	rootCMD.PersistentFlags().StringVar(&flags.root, "root", "", "storage dir, overrides root_path of the config")

	rootCMD.AddCommand(timelinesCMD, first200CMD, ffCMD, filterCMD, confCMD)
}

func Execute() {
	if err := rootCMD.Execute(); err != nil {
		os.Exit(1)
	}
}
