package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
)

////////////////////////////////////////////////////////////////////////////////
// Storage Path Management Structure
////////////////////////////////////////////////////////////////////////////////

// StorePath lays out the output tree of a crawl:
//
//	<root>/tweets/<screen_name>.tweets
//	<root>/ff/<screen_name>.ff
//	<root>/.data/xcrawl.db
type StorePath struct {
	Root   string
	Tweets string
	FF     string
	Data   string
}

const (
	TWEETS_EXT = ".tweets"
	FF_EXT     = ".ff"
	DB_NAME    = "xcrawl.db"
)

////////////////////////////////////////////////////////////////////////////////
// Storage Path Management Functions
////////////////////////////////////////////////////////////////////////////////

// NewStorePath creates a new StorePath instance and ensures directories exist
func NewStorePath(root string) (*StorePath, error) {
	ph := StorePath{}
	ph.Root = root
	ph.Tweets = filepath.Join(root, "tweets")
	ph.FF = filepath.Join(root, "ff")
	ph.Data = filepath.Join(root, ".data")

	for _, dir := range []string{ph.Root, ph.Tweets, ph.FF, ph.Data} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return &ph, nil
}

func (ph *StorePath) DB() string {
	return filepath.Join(ph.Data, DB_NAME)
}

func (ph *StorePath) TweetsFile(screenName string) string {
	return filepath.Join(ph.Tweets, screenName+TWEETS_EXT)
}

func (ph *StorePath) FFFile(screenName string) string {
	return filepath.Join(ph.FF, screenName+FF_EXT)
}

////////////////////////////////////////////////////////////////////////////////
// Timeline Sink
////////////////////////////////////////////////////////////////////////////////

// StatTimeline reports whether the timeline file of screenName exists and its size.
func (ph *StorePath) StatTimeline(screenName string) (bool, int64, error) {
	info, err := os.Stat(ph.TweetsFile(screenName))
	if os.IsNotExist(err) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	return true, info.Size(), nil
}

func (ph *StorePath) SaveTimeline(screenName string, tweets []json.RawMessage) error {
	return WriteTweets(ph.TweetsFile(screenName), tweets)
}

// MarkUnavailable leaves an empty timeline file behind.
func (ph *StorePath) MarkUnavailable(screenName string) error {
	return WriteSentinel(ph.TweetsFile(screenName))
}
