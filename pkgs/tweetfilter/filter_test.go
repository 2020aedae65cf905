package tweetfilter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

////////////////////////////////////////////////////////////////////////////////

var alwaysReject = FilterFunc(func(raw []byte) (bool, error) { return false, nil })

var errAlwaysRaise = errors.New("always raise")

var alwaysRaise = FilterFunc(func(raw []byte) (bool, error) { return false, errAlwaysRaise })

func accept(t *testing.T, f Filter, raw string) {
	t.Helper()
	ok, err := f.Filter([]byte(raw))
	require.NoError(t, err)
	assert.True(t, ok, raw)
}

func reject(t *testing.T, f Filter, raw string) {
	t.Helper()
	ok, err := f.Filter([]byte(raw))
	require.NoError(t, err)
	assert.False(t, ok, raw)
}

////////////////////////////////////////////////////////////////////////////////

func TestChain_ShortCircuit(t *testing.T) {
	chain := NewChain(alwaysReject, alwaysRaise)
	reject(t, chain, `{"id":1}`)

	chain = NewChain(alwaysRaise, alwaysReject)
	_, err := chain.Filter([]byte(`{"id":1}`))
	assert.ErrorIs(t, err, errAlwaysRaise)
}

func TestChain_RunsInOrder(t *testing.T) {
	var calls []string
	record := func(name string, verdict bool) Filter {
		return FilterFunc(func(raw []byte) (bool, error) {
			calls = append(calls, name)
			return verdict, nil
		})
	}

	chain := NewChain(record("a", true), record("b", true))
	chain.Add(record("c", false), record("d", true))
	assert.Equal(t, 4, chain.Len())

	reject(t, chain, `{}`)
	assert.Equal(t, []string{"a", "b", "c"}, calls)

	accept(t, NewChain(), `{}`)
}

func TestValidJSON(t *testing.T) {
	f := ValidJSON{}

	accept(t, f, `{"id":1,"id_str":"1","text":"hi","user":{"screen_name":"jack"}}`)

	reject(t, f, `{"id_str":"1","text":"hi","user":{"screen_name":"jack"}}`)
	reject(t, f, `{"id":1,"text":"hi","user":{"screen_name":"jack"}}`)
	reject(t, f, `{"id":1,"id_str":"1","user":{"screen_name":"jack"}}`)
	reject(t, f, `{"id":1,"id_str":"1","text":"hi","user":{}}`)
	reject(t, f, `{"id":1,"id_str":"1","text":"hi"}`)
	reject(t, f, `[1,2,3]`)
	reject(t, f, `"just a string"`)
	reject(t, f, `{"id":1,"id_str":"1","text":"hi","user":{"screen_name":"jack"}`)
	reject(t, f, ``)
}

func TestNoURLs(t *testing.T) {
	f := NoURLs{}

	reject(t, f, `{"id":1,"id_str":"1","text":"http://x"}`)
	reject(t, f, `{"id":1,"id_str":"1","text":"see https://t.co/abc"}`)
	accept(t, f, `{"id":1,"id_str":"1","text":"no urls"}`)
	accept(t, f, `{"id":1,"id_str":"1","text":"www.example.com"}`)

	_, err := f.Filter([]byte(`{"id":1}`))
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = f.Filter([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrMalformedTweet)
}

func TestNotARetweet(t *testing.T) {
	f := NotARetweet{}

	reject(t, f, `{"text":"plain text","retweeted_status":{"id":2}}`)
	reject(t, f, `{"text":"RT @jack: hello"}`)
	reject(t, f, `{"text":"   RT hello"}`)
	reject(t, f, `{"text":"RT"}`)

	accept(t, f, `{"text":"hello RT @jack"}`)
	accept(t, f, `{"text":"RTFM"}`)
	accept(t, f, `{"text":"rt lowercase"}`)
}

func TestFieldMatchesRegex(t *testing.T) {
	f, err := NewFieldMatchesRegex("text", `\bmy shears?\b`)
	require.NoError(t, err)

	accept(t, f, `{"text":"where are my shears"}`)
	accept(t, f, `{"text":"my shear is dull"}`)
	reject(t, f, `{"text":"your shears"}`)

	byName, err := NewFieldMatchesRegex("user.screen_name", `^bot_`)
	require.NoError(t, err)
	accept(t, byName, `{"user":{"screen_name":"bot_42"}}`)
	reject(t, byName, `{"user":{"screen_name":"human"}}`)

	_, err = NewFieldMatchesRegex("text", `(unclosed`)
	assert.Error(t, err)
}

func TestOneTweetPerScreenName(t *testing.T) {
	f := NewOneTweetPerScreenName()

	a := `{"id":1,"id_str":"1","text":"a1","user":{"screen_name":"A"}}`
	b := `{"id":2,"id_str":"2","text":"b1","user":{"screen_name":"B"}}`

	accept(t, f, a)
	accept(t, f, b)
	reject(t, f, a)
	reject(t, f, b)

	_, err := f.Filter([]byte(`{"id":3}`))
	assert.ErrorIs(t, err, ErrMissingField)
}

////////////////////////////////////////////////////////////////////////////////

type stubDetector struct {
	d     Detection
	texts []string
}

func (s *stubDetector) Detect(text string) Detection {
	s.texts = append(s.texts, text)
	return s.d
}

func TestReliablyEnglish(t *testing.T) {
	tweet := `{"id":1,"id_str":"1","text":"The quick brown fox"}`

	d := &stubDetector{d: Detection{Name: "ENGLISH", Code: "en", Reliable: true}}
	accept(t, NewReliablyEnglish(d), tweet)
	assert.Equal(t, []string{"The quick brown fox"}, d.texts)

	reject(t, NewReliablyEnglish(&stubDetector{d: Detection{Name: "ENGLISH", Code: "en", Reliable: false}}), tweet)
	reject(t, NewReliablyEnglish(&stubDetector{d: Detection{Name: "SPANISH", Code: "es", Reliable: true}}), tweet)
}

func TestReliablyEnglish_WhatlangRejectsSpanish(t *testing.T) {
	f := NewReliablyEnglish(nil)
	reject(t, f, `{"text":"El veloz murciélago hindú comía feliz cardillo y kiwi, la cigüeña tocaba el saxofón detrás del palenque de paja."}`)
}

////////////////////////////////////////////////////////////////////////////////

func TestTweetIDInSet(t *testing.T) {
	tweet := func(id string) string { return `{"id":` + id + `,"id_str":"` + id + `"}` }

	f := NewTweetIDInSet()
	reject(t, f, tweet("1"))

	require.NoError(t, f.AddTweet([]byte(tweet("1"))))
	accept(t, f, tweet("1"))

	require.NoError(t, f.AddTweets([][]byte{[]byte(tweet("2")), []byte(tweet("3"))}))
	accept(t, f, tweet("2"))
	accept(t, f, tweet("3"))

	reject(t, f, tweet("4"))
	f.AddTweetID(4)
	accept(t, f, tweet("4"))

	f.AddTweetIDs([]int64{4, 5})
	accept(t, f, tweet("5"))
	assert.Equal(t, 5, f.Len())
}

func TestTweetIDInSet_IntAndStringInterchangeable(t *testing.T) {
	ints := NewTweetIDInSet()
	ints.AddTweetID(1)
	accept(t, ints, `{"id":1,"id_str":"1"}`)

	strs := NewTweetIDInSet()
	strs.AddTweetIDString("1")
	accept(t, strs, `{"id":1,"id_str":"1"}`)
	accept(t, strs, `{"id":1.0,"id_str":"1"}`)

	big := NewTweetIDInSet()
	big.AddTweetIDStrings([]string{"629286297342210048"})
	accept(t, big, `{"id":629286297342210048,"id_str":"629286297342210048"}`)

	require.NoError(t, ints.AddTweet([]byte(`{"id":"7","id_str":"7"}`)))
	assert.Equal(t, 2, ints.Len())
}

func TestTweetIDInSet_FloatIDsOutOfRange(t *testing.T) {
	set := NewTweetIDInSet()
	assert.ErrorIs(t, set.AddTweet([]byte(`{"id":1e19}`)), ErrMalformedTweet)
	assert.ErrorIs(t, set.AddTweet([]byte(`{"id":-1e19}`)), ErrMalformedTweet)
	assert.ErrorIs(t, set.AddTweet([]byte(`{"id":1.5}`)), ErrMalformedTweet)
	assert.Zero(t, set.Len())

	set.AddTweetIDString("10000000000000000000")
	accept(t, set, `{"id":1e19,"id_str":"10000000000000000000"}`)

	require.NoError(t, set.AddTweet([]byte(`{"id":2e3}`)))
	accept(t, set, `{"id":2000,"id_str":"2000"}`)
}

func TestTweetIDNotInSet(t *testing.T) {
	tweet := func(id string) string { return `{"id":` + id + `,"id_str":"` + id + `"}` }

	f := NewTweetIDNotInSet()
	accept(t, f, tweet("1"))
	require.NoError(t, f.AddTweet([]byte(tweet("1"))))
	reject(t, f, tweet("1"))

	f.AddTweetID(4)
	reject(t, f, tweet("4"))
	f.AddTweetIDString("5")
	reject(t, f, tweet("5"))
	accept(t, f, tweet("6"))

	_, err := f.Filter([]byte(`{"text":"no id"}`))
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestCounting(t *testing.T) {
	f := Counting("no_urls", NoURLs{})
	reject(t, f, `{"text":"http://x"}`)
	accept(t, f, `{"text":"plain"}`)

	_, err := Counting("raise", alwaysRaise).Filter([]byte(`{}`))
	assert.ErrorIs(t, err, errAlwaysRaise)
}
