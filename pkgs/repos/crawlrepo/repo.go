package crawlrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/WangWilly/xCrawl/pkgs/model"
	"github.com/jmoiron/sqlx"
)

type repo struct{}

func New() *repo {
	return &repo{}
}

////////////////////////////////////////////////////////////////////////////////

// Upsert stores crawl, replacing the previous outcome for the same screen name
// and kind. crawl is refreshed from the stored row.
func (r *repo) Upsert(ctx context.Context, db *sqlx.DB, crawl *model.Crawl) error {
	stmt := `INSERT INTO crawls (screen_name, kind, status, tweet_count, newest_id, path, run_id)
			 VALUES (:screen_name, :kind, :status, :tweet_count, :newest_id, :path, :run_id)
			 ON CONFLICT(screen_name, kind) DO UPDATE SET
				status = excluded.status,
				tweet_count = excluded.tweet_count,
				newest_id = excluded.newest_id,
				path = excluded.path,
				run_id = excluded.run_id,
				updated_at = CURRENT_TIMESTAMP
			`
	if _, err := db.NamedExecContext(ctx, stmt, crawl); err != nil {
		return err
	}

	stored, err := r.Get(ctx, db, crawl.ScreenName, crawl.Kind)
	if err != nil {
		return err
	}
	if stored == nil {
		return sql.ErrNoRows
	}
	*crawl = *stored
	return nil
}

////////////////////////////////////////////////////////////////////////////////

// Get returns nil, nil when screenName was never crawled for kind.
func (r *repo) Get(ctx context.Context, db *sqlx.DB, screenName string, kind string) (*model.Crawl, error) {
	stmt := db.Rebind(`SELECT * FROM crawls WHERE screen_name = ? AND kind = ?`)
	res := &model.Crawl{}
	err := db.GetContext(ctx, res, stmt, screenName, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *repo) ListByStatus(ctx context.Context, db *sqlx.DB, kind string, status string) ([]*model.Crawl, error) {
	stmt := db.Rebind(`SELECT * FROM crawls WHERE kind = ? AND status = ? ORDER BY screen_name`)
	res := []*model.Crawl{}
	err := db.SelectContext(ctx, &res, stmt, kind, status)
	return res, err
}

func (r *repo) Delete(ctx context.Context, db *sqlx.DB, screenName string, kind string) error {
	stmt := db.Rebind(`DELETE FROM crawls WHERE screen_name = ? AND kind = ?`)
	_, err := db.ExecContext(ctx, stmt, screenName, kind)
	return err
}
