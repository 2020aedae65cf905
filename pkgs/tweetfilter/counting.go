package tweetfilter

import "github.com/WangWilly/xCrawl/pkgs/metrics"

// Counting wraps f and records every decision under name.
func Counting(name string, f Filter) Filter {
	return FilterFunc(func(raw []byte) (bool, error) {
		ok, err := f.Filter(raw)
		if err != nil {
			return false, err
		}
		metrics.IncFilterDecision(name, ok)
		return ok, nil
	})
}
