package tweetfilter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

////////////////////////////////////////////////////////////////////////////////

// IDSet is a set of tweet ids. Ids are kept in decimal string form, so 1 and
// "1" are the same member.
type IDSet struct {
	ids map[string]struct{}
}

func (s *IDSet) put(key string) {
	if s.ids == nil {
		s.ids = map[string]struct{}{}
	}
	s.ids[key] = struct{}{}
}

// AddTweet adds the id of a raw tweet record.
func (s *IDSet) AddTweet(raw []byte) error {
	id, err := field(raw, "id")
	if err != nil {
		return err
	}
	key, ok := idKey(id)
	if !ok {
		return fmt.Errorf("%w: id %s is not an integer", ErrMalformedTweet, id.Raw)
	}
	s.put(key)
	return nil
}

func (s *IDSet) AddTweets(raws [][]byte) error {
	for _, raw := range raws {
		if err := s.AddTweet(raw); err != nil {
			return err
		}
	}
	return nil
}

func (s *IDSet) AddTweetID(id int64) {
	s.put(strconv.FormatInt(id, 10))
}

func (s *IDSet) AddTweetIDs(ids []int64) {
	for _, id := range ids {
		s.AddTweetID(id)
	}
}

func (s *IDSet) AddTweetIDString(id string) {
	s.put(strings.TrimSpace(id))
}

func (s *IDSet) AddTweetIDStrings(ids []string) {
	for _, id := range ids {
		s.AddTweetIDString(id)
	}
}

func (s *IDSet) Len() int {
	return len(s.ids)
}

// Contains reports whether the id or id_str of raw is in the set.
func (s *IDSet) Contains(raw []byte) (bool, error) {
	id, err := field(raw, "id")
	if err != nil {
		return false, err
	}
	if key, ok := idKey(id); ok {
		if _, hit := s.ids[key]; hit {
			return true, nil
		}
	}

	idStr, err := field(raw, "id_str")
	if err != nil {
		return false, err
	}
	_, hit := s.ids[strings.TrimSpace(idStr.String())]
	return hit, nil
}

// idKey renders a JSON id value in canonical decimal form.
func idKey(id gjson.Result) (string, bool) {
	switch id.Type {
	case gjson.Number:
		if _, err := strconv.ParseInt(id.Raw, 10, 64); err == nil {
			return id.Raw, true
		}
		if _, err := strconv.ParseUint(id.Raw, 10, 64); err == nil {
			return id.Raw, true
		}
		f := id.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= 0x1p63 {
			return "", false
		}
		return strconv.FormatInt(int64(f), 10), true
	case gjson.String:
		return strings.TrimSpace(id.String()), true
	}
	return "", false
}

////////////////////////////////////////////////////////////////////////////////

// TweetIDInSet accepts tweets whose id is in the set.
type TweetIDInSet struct {
	IDSet
}

func NewTweetIDInSet() *TweetIDInSet {
	return &TweetIDInSet{}
}

func (f *TweetIDInSet) Filter(raw []byte) (bool, error) {
	return f.Contains(raw)
}

// TweetIDNotInSet accepts tweets whose id is not in the set.
type TweetIDNotInSet struct {
	IDSet
}

func NewTweetIDNotInSet() *TweetIDNotInSet {
	return &TweetIDNotInSet{}
}

func (f *TweetIDNotInSet) Filter(raw []byte) (bool, error) {
	hit, err := f.Contains(raw)
	if err != nil {
		return false, err
	}
	return !hit, nil
}
