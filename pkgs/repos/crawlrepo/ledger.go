package crawlrepo

import (
	"context"

	"github.com/WangWilly/xCrawl/pkgs/model"
	"github.com/jmoiron/sqlx"
)

// Ledger binds the repo to one database.
type Ledger struct {
	db   *sqlx.DB
	repo *repo
}

func NewLedger(db *sqlx.DB) *Ledger {
	return &Ledger{db: db, repo: New()}
}

func (l *Ledger) Record(ctx context.Context, crawl *model.Crawl) error {
	return l.repo.Upsert(ctx, l.db, crawl)
}

func (l *Ledger) Last(ctx context.Context, screenName string, kind string) (*model.Crawl, error) {
	return l.repo.Get(ctx, l.db, screenName, kind)
}
