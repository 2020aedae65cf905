package model

import (
	"database/sql"
	"time"
)

// crawl kinds
const (
	KIND_TIMELINE  = "timeline"
	KIND_FF        = "ff"
	KIND_FIRST_200 = "first200"
)

// crawl statuses
const (
	STATUS_OK      = "ok"
	STATUS_GONE    = "gone"
	STATUS_DENIED  = "denied"
	STATUS_SKIPPED = "skipped"
)

// Crawl is the outcome of the last crawl of one screen name for one kind of
// download.
type Crawl struct {
	Id         sql.NullInt64 `db:"id"`
	ScreenName string        `db:"screen_name"`
	Kind       string        `db:"kind"`
	Status     string        `db:"status"`
	TweetCount int           `db:"tweet_count"`
	NewestId   int64         `db:"newest_id"`
	Path       string        `db:"path"`
	RunId      string        `db:"run_id"`
	CreatedAt  time.Time     `db:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at"`
}
