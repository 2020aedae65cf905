package downloading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/WangWilly/xCrawl/internal/storage"
	"github.com/WangWilly/xCrawl/pkgs/clients/twitterclient"
	"github.com/WangWilly/xCrawl/pkgs/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

////////////////////////////////////////////////////////////////////////////////

func tweets(ids ...uint64) []json.RawMessage {
	res := make([]json.RawMessage, len(ids))
	for i, id := range ids {
		res[i] = json.RawMessage(fmt.Sprintf(`{"id":%d,"id_str":"%d"}`, id, id))
	}
	return res
}

type fakeCrawler struct {
	mu       sync.Mutex
	timeline map[string][]json.RawMessage
	errs     map[string]error
	sinceIDs map[string]uint64
	pages    []string
}

func newFakeCrawler() *fakeCrawler {
	return &fakeCrawler{
		timeline: map[string][]json.RawMessage{},
		errs:     map[string]error{},
		sinceIDs: map[string]uint64{},
	}
}

func (f *fakeCrawler) FetchAll(ctx context.Context, screenName string, sinceID uint64) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinceIDs[screenName] = sinceID
	if err := f.errs[screenName]; err != nil {
		return nil, err
	}
	res := []json.RawMessage{}
	for _, tweet := range f.timeline[screenName] {
		var id struct {
			Id uint64 `json:"id"`
		}
		if err := json.Unmarshal(tweet, &id); err != nil {
			return nil, err
		}
		if id.Id > sinceID {
			res = append(res, tweet)
		}
	}
	return res, nil
}

func (f *fakeCrawler) FetchPage(ctx context.Context, screenName string, count int) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, screenName)
	if err := f.errs[screenName]; err != nil {
		return nil, err
	}
	return f.timeline[screenName][:min(count, len(f.timeline[screenName]))], nil
}

func (f *fakeCrawler) fetched(screenName string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sinceIDs[screenName]
	return ok
}

type fakeFinder map[string][]string

func (f fakeFinder) MutualScreenNames(ctx context.Context, screenName string) ([]string, error) {
	return f[screenName], nil
}

type fakeLedger struct {
	mu     sync.Mutex
	crawls map[string]*model.Crawl
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{crawls: map[string]*model.Crawl{}}
}

func (l *fakeLedger) Record(ctx context.Context, crawl *model.Crawl) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	copied := *crawl
	l.crawls[crawl.ScreenName+"/"+crawl.Kind] = &copied
	return nil
}

func (l *fakeLedger) Last(ctx context.Context, screenName string, kind string) (*model.Crawl, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.crawls[screenName+"/"+kind], nil
}

func newTestDownloader(t *testing.T, crawler *fakeCrawler, finder MutualFinder, ledger Ledger) (*Downloader, *storage.StorePath) {
	t.Helper()
	store, err := storage.NewStorePath(t.TempDir())
	require.NoError(t, err)
	d := NewDownloader(Config{MaxDownloadRoutine: 3, RunID: "run-1"}, crawler, finder, store, ledger, nil)
	return d, store
}

func tweetIDsIn(t *testing.T, path string) []string {
	t.Helper()
	saved, err := storage.ReadTweets(path)
	require.NoError(t, err)
	ids := []string{}
	for _, tweet := range saved {
		var id struct {
			IdStr string `json:"id_str"`
		}
		require.NoError(t, json.Unmarshal(tweet, &id))
		ids = append(ids, id.IdStr)
	}
	return ids
}

////////////////////////////////////////////////////////////////////////////////

func TestDownloadTimelines(t *testing.T) {
	crawler := newFakeCrawler()
	crawler.timeline["jack"] = tweets(12, 11, 10)
	crawler.errs["gone"] = &twitterclient.APIError{StatusCode: 404}
	crawler.errs["locked"] = &twitterclient.APIError{StatusCode: 401}
	ledger := newFakeLedger()
	d, store := newTestDownloader(t, crawler, nil, ledger)

	summary, err := d.DownloadTimelines(context.Background(), []string{"jack", "gone", "locked", "jack"}, false)
	require.NoError(t, err)
	assert.Equal(t, Summary{Downloaded: 1, Gone: 1, Denied: 1}, summary)

	assert.Equal(t, []string{"12", "11", "10"}, tweetIDsIn(t, store.TweetsFile("jack")))
	for _, name := range []string{"gone", "locked"} {
		exists, size, err := store.StatTimeline(name)
		require.NoError(t, err)
		assert.True(t, exists)
		assert.Zero(t, size)
	}

	jack := ledger.crawls["jack/"+model.KIND_TIMELINE]
	require.NotNil(t, jack)
	assert.Equal(t, model.STATUS_OK, jack.Status)
	assert.Equal(t, 3, jack.TweetCount)
	assert.Equal(t, int64(12), jack.NewestId)
	assert.Equal(t, "run-1", jack.RunId)
	assert.Equal(t, model.STATUS_GONE, ledger.crawls["gone/"+model.KIND_TIMELINE].Status)
	assert.Equal(t, model.STATUS_DENIED, ledger.crawls["locked/"+model.KIND_TIMELINE].Status)
}

func TestDownloadTimelines_SkipsExisting(t *testing.T) {
	crawler := newFakeCrawler()
	crawler.timeline["jack"] = tweets(3, 2, 1)
	d, store := newTestDownloader(t, crawler, nil, nil)
	require.NoError(t, storage.WriteTweets(store.TweetsFile("jack"), tweets(1)))

	summary, err := d.DownloadTimelines(context.Background(), []string{"jack"}, false)
	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 1}, summary)
	assert.False(t, crawler.fetched("jack"))
	assert.Equal(t, []string{"1"}, tweetIDsIn(t, store.TweetsFile("jack")))
}

func TestDownloadTimelines_Incremental(t *testing.T) {
	crawler := newFakeCrawler()
	crawler.timeline["jack"] = tweets(7, 6, 5, 4)
	ledger := newFakeLedger()
	d, store := newTestDownloader(t, crawler, nil, ledger)

	require.NoError(t, storage.WriteTweets(store.TweetsFile("jack"), tweets(5, 4)))
	require.NoError(t, ledger.Record(context.Background(), &model.Crawl{
		ScreenName: "jack",
		Kind:       model.KIND_TIMELINE,
		Status:     model.STATUS_OK,
		NewestId:   5,
	}))

	summary, err := d.DownloadTimelines(context.Background(), []string{"jack"}, true)
	require.NoError(t, err)
	assert.Equal(t, Summary{Downloaded: 1}, summary)
	assert.Equal(t, uint64(5), crawler.sinceIDs["jack"])
	assert.Equal(t, []string{"7", "6", "5", "4"}, tweetIDsIn(t, store.TweetsFile("jack")))

	jack := ledger.crawls["jack/"+model.KIND_TIMELINE]
	assert.Equal(t, int64(7), jack.NewestId)
	assert.Equal(t, 4, jack.TweetCount)

	// nothing new: file and newest id stay
	_, err = d.DownloadTimelines(context.Background(), []string{"jack"}, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), crawler.sinceIDs["jack"])
	assert.Equal(t, []string{"7", "6", "5", "4"}, tweetIDsIn(t, store.TweetsFile("jack")))
	assert.Equal(t, int64(7), ledger.crawls["jack/"+model.KIND_TIMELINE].NewestId)
}

func TestDownloadTimelines_IncrementalWithoutLedger(t *testing.T) {
	crawler := newFakeCrawler()
	crawler.timeline["jack"] = tweets(9, 8)
	crawler.timeline["gone"] = tweets(3)
	d, store := newTestDownloader(t, crawler, nil, nil)

	require.NoError(t, storage.WriteTweets(store.TweetsFile("jack"), tweets(6, 8)))
	require.NoError(t, storage.WriteSentinel(store.TweetsFile("gone")))

	summary, err := d.DownloadTimelines(context.Background(), []string{"jack", "gone"}, true)
	require.NoError(t, err)
	assert.Equal(t, Summary{Downloaded: 1, Skipped: 1}, summary)
	assert.Equal(t, uint64(8), crawler.sinceIDs["jack"])
	assert.Equal(t, []string{"9", "6", "8"}, tweetIDsIn(t, store.TweetsFile("jack")))
	assert.False(t, crawler.fetched("gone"))
}

func TestDownloadTimelines_IncrementalKeepsFileOfGoneUser(t *testing.T) {
	crawler := newFakeCrawler()
	crawler.errs["jack"] = &twitterclient.APIError{StatusCode: 404}
	ledger := newFakeLedger()
	d, store := newTestDownloader(t, crawler, nil, ledger)
	require.NoError(t, storage.WriteTweets(store.TweetsFile("jack"), tweets(2, 1)))

	summary, err := d.DownloadTimelines(context.Background(), []string{"jack"}, true)
	require.NoError(t, err)
	assert.Equal(t, Summary{Gone: 1}, summary)
	assert.Equal(t, []string{"2", "1"}, tweetIDsIn(t, store.TweetsFile("jack")))
	assert.Equal(t, model.STATUS_GONE, ledger.crawls["jack/"+model.KIND_TIMELINE].Status)
}

func TestDownloadTimelines_UnclassifiedErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	crawler := newFakeCrawler()
	crawler.errs["jack"] = boom
	d, store := newTestDownloader(t, crawler, nil, nil)

	_, err := d.DownloadTimelines(context.Background(), []string{"jack"}, false)
	assert.ErrorIs(t, err, boom)
	_, statErr := os.Stat(store.TweetsFile("jack"))
	assert.True(t, os.IsNotExist(statErr))
}

////////////////////////////////////////////////////////////////////////////////

func TestDownloadFriendFollowers(t *testing.T) {
	crawler := newFakeCrawler()
	crawler.timeline["biz"] = tweets(2)
	crawler.timeline["ev"] = tweets(4, 3)
	finder := fakeFinder{
		"jack": {"biz", "ev"},
		"biz":  {"ev"},
	}
	ledger := newFakeLedger()
	d, store := newTestDownloader(t, crawler, finder, ledger)

	summary, err := d.DownloadFriendFollowers(context.Background(), []string{"jack", "biz"})
	require.NoError(t, err)
	assert.Equal(t, Summary{Downloaded: 4}, summary)

	names, err := storage.ReadScreenNames(store.FFFile("jack"))
	require.NoError(t, err)
	assert.Equal(t, []string{"biz", "ev"}, names)
	names, err = storage.ReadScreenNames(store.FFFile("biz"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ev"}, names)

	assert.Equal(t, []string{"2"}, tweetIDsIn(t, store.TweetsFile("biz")))
	assert.Equal(t, []string{"4", "3"}, tweetIDsIn(t, store.TweetsFile("ev")))
	assert.False(t, crawler.fetched("jack"))
	assert.Equal(t, model.STATUS_OK, ledger.crawls["jack/"+model.KIND_FF].Status)

	// saved .ff files are reused and timelines are not fetched again
	summary, err = d.DownloadFriendFollowers(context.Background(), []string{"jack"})
	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 3}, summary)
}

////////////////////////////////////////////////////////////////////////////////

func TestDownloadFirst200(t *testing.T) {
	many := make([]uint64, 250)
	for i := range many {
		many[i] = uint64(1000 - i)
	}
	crawler := newFakeCrawler()
	crawler.timeline["jack"] = tweets(many...)
	crawler.timeline["quiet"] = tweets(3, 2, 1)
	crawler.errs["gone"] = &twitterclient.APIError{StatusCode: 404}
	ledger := newFakeLedger()
	d, store := newTestDownloader(t, crawler, nil, ledger)

	summary, err := d.DownloadFirst200(context.Background(), []string{"jack", "quiet", "gone"}, 100)
	require.NoError(t, err)
	assert.Equal(t, Summary{Downloaded: 1, Skipped: 2}, summary)

	assert.Len(t, tweetIDsIn(t, store.TweetsFile("jack")), 200)
	for _, name := range []string{"quiet", "gone"} {
		exists, size, err := store.StatTimeline(name)
		require.NoError(t, err)
		assert.True(t, exists)
		assert.Zero(t, size)
		assert.Equal(t, model.STATUS_SKIPPED, ledger.crawls[name+"/"+model.KIND_FIRST_200].Status)
	}
	assert.Equal(t, model.STATUS_OK, ledger.crawls["jack/"+model.KIND_FIRST_200].Status)

	// a second run fetches nothing and counts every saved file as skipped
	summary, err = d.DownloadFirst200(context.Background(), []string{"jack", "quiet"}, 100)
	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 2}, summary)
	assert.Equal(t, model.STATUS_OK, ledger.crawls["jack/"+model.KIND_FIRST_200].Status)

	sort.Strings(crawler.pages)
	assert.Equal(t, []string{"gone", "jack", "quiet"}, crawler.pages)
}
