package crawler

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/WangWilly/xCrawl/pkgs/clients/twitterclient"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

////////////////////////////////////////////////////////////////////////////////

const (
	// LookupBatchSize is the users/lookup limit of ids per call.
	LookupBatchSize = 100
	// IDsPageSize is the friends/ids and followers/ids limit. Only the first
	// page is read, so larger accounts get a partial network.
	IDsPageSize = 5000
)

// FriendFollowerFinder finds the accounts a user both follows and is followed by.
type FriendFollowerFinder struct {
	friends   DataGetter
	followers DataGetter
	lookup    DataGetter
	logger    *log.Entry
}

func NewFriendFollowerFinder(friends, followers, lookup DataGetter, logger *log.Entry) *FriendFollowerFinder {
	if logger == nil {
		logger = log.WithField("caller", "FriendFollowerFinder")
	}
	return &FriendFollowerFinder{
		friends:   friends,
		followers: followers,
		lookup:    lookup,
		logger:    logger,
	}
}

////////////////////////////////////////////////////////////////////////////////

// MutualIDs returns the ids in both friends/ids and followers/ids of
// screenName, ascending. A gone or protected user has none.
func (f *FriendFollowerFinder) MutualIDs(ctx context.Context, screenName string) ([]uint64, error) {
	friends, err := f.ids(ctx, f.friends, screenName)
	if twitterclient.IsUnreachable(err) {
		warnUnreachable(f.logger, screenName, err)
		return []uint64{}, nil
	}
	if err != nil {
		return nil, err
	}
	followers, err := f.ids(ctx, f.followers, screenName)
	if twitterclient.IsUnreachable(err) {
		warnUnreachable(f.logger, screenName, err)
		return []uint64{}, nil
	}
	if err != nil {
		return nil, err
	}

	followerSet := make(map[uint64]struct{}, len(followers))
	for _, id := range followers {
		followerSet[id] = struct{}{}
	}

	mutual := []uint64{}
	seen := map[uint64]struct{}{}
	for _, id := range friends {
		if _, ok := followerSet[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		mutual = append(mutual, id)
	}
	sort.Slice(mutual, func(i, j int) bool { return mutual[i] < mutual[j] })
	return mutual, nil
}

// MutualScreenNames resolves MutualIDs to screen names, sorted.
func (f *FriendFollowerFinder) MutualScreenNames(ctx context.Context, screenName string) ([]string, error) {
	ids, err := f.MutualIDs(ctx, screenName)
	if err != nil {
		return nil, err
	}
	f.logger.WithFields(log.Fields{
		"screen_name": screenName,
		"mutual":      len(ids),
	}).Infoln("resolving mutual friend-followers")

	names := []string{}
	for start := 0; start < len(ids); start += LookupBatchSize {
		end := min(start+LookupBatchSize, len(ids))
		batch, err := f.lookupScreenNames(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		names = append(names, batch...)
	}
	sort.Strings(names)
	return names, nil
}

////////////////////////////////////////////////////////////////////////////////

func (f *FriendFollowerFinder) ids(ctx context.Context, ep DataGetter, screenName string) ([]uint64, error) {
	body, err := ep.GetData(ctx, url.Values{
		"screen_name":   {screenName},
		"count":         {strconv.Itoa(IDsPageSize)},
		"stringify_ids": {"true"},
	})
	if err != nil {
		return nil, err
	}

	ids := []uint64{}
	for _, id := range gjson.GetBytes(body, "ids").Array() {
		ids = append(ids, id.Uint())
	}
	return ids, nil
}

func (f *FriendFollowerFinder) lookupScreenNames(ctx context.Context, ids []uint64) ([]string, error) {
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = strconv.FormatUint(id, 10)
	}

	body, err := f.lookup.GetData(ctx, url.Values{
		"user_id":          {strings.Join(strIDs, ",")},
		"include_entities": {"false"},
	})
	if errors.Is(err, twitterclient.ErrResourceGone) {
		// none of the ids in this batch still exist
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, name := range gjson.GetBytes(body, "#.screen_name").Array() {
		names = append(names, name.String())
	}
	return names, nil
}

// warnUnreachable logs why a user could not be crawled.
func warnUnreachable(logger *log.Entry, screenName string, err error) {
	logger = logger.WithField("screen_name", screenName)
	if errors.Is(err, twitterclient.ErrResourceGone) {
		logger.Warnf("user '%s' most likely no longer exists", screenName)
		return
	}
	logger.Warnf("user '%s' is most likely no longer publicly accessible", screenName)
}
