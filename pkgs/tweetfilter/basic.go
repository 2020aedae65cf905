package tweetfilter

import (
	"regexp"

	"github.com/tidwall/gjson"
)

////////////////////////////////////////////////////////////////////////////////

var requiredFields = []string{"id", "id_str", "text", "user.screen_name"}

// ValidJSON accepts JSON objects carrying id, id_str, text and user.screen_name.
type ValidJSON struct{}

func (ValidJSON) Filter(raw []byte) (bool, error) {
	if !gjson.ValidBytes(raw) {
		return false, nil
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return false, nil
	}
	for _, path := range requiredFields {
		if !root.Get(path).Exists() {
			return false, nil
		}
	}
	return true, nil
}

////////////////////////////////////////////////////////////////////////////////

var urlPattern = regexp.MustCompile(`https?://`)

// NoURLs rejects tweets whose text contains an http or https link.
type NoURLs struct{}

func (NoURLs) Filter(raw []byte) (bool, error) {
	text, err := field(raw, "text")
	if err != nil {
		return false, err
	}
	return !urlPattern.MatchString(text.String()), nil
}

////////////////////////////////////////////////////////////////////////////////

var retweetPattern = regexp.MustCompile(`^\s*RT\b`)

// NotARetweet rejects official retweets and old style "RT ..." tweets.
type NotARetweet struct{}

func (NotARetweet) Filter(raw []byte) (bool, error) {
	if !gjson.ValidBytes(raw) {
		return false, ErrMalformedTweet
	}
	if gjson.GetBytes(raw, "retweeted_status").Exists() {
		return false, nil
	}
	text, err := field(raw, "text")
	if err != nil {
		return false, err
	}
	return !retweetPattern.MatchString(text.String()), nil
}

////////////////////////////////////////////////////////////////////////////////

// FieldMatchesRegex accepts tweets whose field matches the pattern anywhere.
// Field is a gjson path such as "text" or "user.screen_name".
type FieldMatchesRegex struct {
	field   string
	pattern *regexp.Regexp
}

func NewFieldMatchesRegex(field, pattern string) (*FieldMatchesRegex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &FieldMatchesRegex{field: field, pattern: re}, nil
}

func (f *FieldMatchesRegex) Filter(raw []byte) (bool, error) {
	value, err := field(raw, f.field)
	if err != nil {
		return false, err
	}
	return f.pattern.MatchString(value.String()), nil
}
