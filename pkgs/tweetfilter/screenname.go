package tweetfilter

// OneTweetPerScreenName accepts only the first tweet seen from each author.
type OneTweetPerScreenName struct {
	seen map[string]struct{}
}

func NewOneTweetPerScreenName() *OneTweetPerScreenName {
	return &OneTweetPerScreenName{seen: map[string]struct{}{}}
}

func (f *OneTweetPerScreenName) Filter(raw []byte) (bool, error) {
	name, err := field(raw, "user.screen_name")
	if err != nil {
		return false, err
	}
	if _, ok := f.seen[name.String()]; ok {
		return false, nil
	}
	f.seen[name.String()] = struct{}{}
	return true, nil
}
