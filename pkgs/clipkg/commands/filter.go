package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/WangWilly/xCrawl/internal/storage"
	"github.com/WangWilly/xCrawl/pkgs/tweetfilter"
	"github.com/WangWilly/xCrawl/pkgs/tweetreader"
	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"
)

type filterOptions struct {
	out        string
	noRetweets bool
	noURLs     bool
	english    bool
	onePerUser bool
	matches    []string
	idsIn      string
	idsNotIn   string

	// detector defaults to whatlanggo.
	detector tweetfilter.Detector
}

var filterOpts filterOptions

var filterCMD = &cobra.Command{
	Use:   "filter <tweets-file>",
	Short: "write the tweets of a file that pass every filter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if filterOpts.out != "" {
			file, err := os.Create(filterOpts.out)
			if err != nil {
				return err
			}
			defer file.Close()
			out = file
		}

		accepted, err := runFilter(args[0], filterOpts, out)
		a.logger.WithFields(log.Fields{
			"file":     args[0],
			"accepted": accepted,
		}).Infoln("filter finished")
		return err
	},
}

func init() {
	f := filterCMD.Flags()
	f.StringVarP(&filterOpts.out, "out", "o", "", "output file (default stdout)")
	f.BoolVar(&filterOpts.noRetweets, "no-retweets", false, "drop retweets")
	f.BoolVar(&filterOpts.noURLs, "no-urls", false, "drop tweets with URLs")
	f.BoolVar(&filterOpts.english, "english", false, "keep tweets reliably detected as English")
	f.BoolVar(&filterOpts.onePerUser, "one-per-user", false, "keep the first tweet of every screen name")
	f.StringArrayVar(&filterOpts.matches, "match", nil, "keep tweets whose field matches, as field=regex (repeatable)")
	f.StringVar(&filterOpts.idsIn, "ids-in", "", "keep tweets whose id is in this file of tweets or ids")
	f.StringVar(&filterOpts.idsNotIn, "ids-not-in", "", "drop tweets whose id is in this file of tweets or ids")
}

////////////////////////////////////////////////////////////////////////////////

// runFilter streams the accepted records of path to out, one per line.
func runFilter(path string, opts filterOptions, out io.Writer) (int, error) {
	filters, err := buildFilters(opts)
	if err != nil {
		return 0, err
	}

	reader, err := tweetreader.Open(path, filters...)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	w := bufio.NewWriter(out)
	accepted := 0
	for tweet, err := range reader.All() {
		if err != nil {
			return accepted, err
		}
		if _, err := w.Write(tweet); err != nil {
			return accepted, err
		}
		if err := w.WriteByte('\n'); err != nil {
			return accepted, err
		}
		accepted++
	}
	return accepted, w.Flush()
}

// buildFilters turns the options into a chain in a fixed order: stateless
// filters first, cheap field checks before language detection, and filters
// that remember what they accepted last.
func buildFilters(opts filterOptions) ([]tweetfilter.Filter, error) {
	filters := []tweetfilter.Filter{}
	add := func(name string, f tweetfilter.Filter) {
		filters = append(filters, tweetfilter.Counting(name, f))
	}

	if opts.idsIn != "" {
		in := tweetfilter.NewTweetIDInSet()
		if err := loadIDSet(opts.idsIn, &in.IDSet); err != nil {
			return nil, err
		}
		add("tweet_id_in_set", in)
	}
	if opts.idsNotIn != "" {
		notIn := tweetfilter.NewTweetIDNotInSet()
		if err := loadIDSet(opts.idsNotIn, &notIn.IDSet); err != nil {
			return nil, err
		}
		add("tweet_id_not_in_set", notIn)
	}
	if opts.noRetweets {
		add("not_a_retweet", tweetfilter.NotARetweet{})
	}
	if opts.noURLs {
		add("no_urls", tweetfilter.NoURLs{})
	}
	for _, match := range opts.matches {
		field, pattern, ok := strings.Cut(match, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("--match %q: want field=regex", match)
		}
		f, err := tweetfilter.NewFieldMatchesRegex(field, pattern)
		if err != nil {
			return nil, err
		}
		add("field_matches_regex", f)
	}
	if opts.english {
		add("reliably_english", tweetfilter.NewReliablyEnglish(opts.detector))
	}
	// stateful: sees only records every other filter accepted
	if opts.onePerUser {
		add("one_tweet_per_screen_name", tweetfilter.NewOneTweetPerScreenName())
	}
	return filters, nil
}

// loadIDSet adds every line of path to set. A line is either a tweet or a
// bare id, quoted or not.
func loadIDSet(path string, set *tweetfilter.IDSet) error {
	lines, err := storage.ReadTweets(path)
	if err != nil {
		return err
	}
	for i, line := range lines {
		if line[0] == '{' {
			if err := set.AddTweet(line); err != nil {
				return fmt.Errorf("%s:%d: %w", path, i+1, err)
			}
			continue
		}
		set.AddTweetIDString(strings.Trim(string(line), `"`))
	}
	return nil
}
