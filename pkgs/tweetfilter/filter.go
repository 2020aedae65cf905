// Package tweetfilter holds predicates over raw tweet records and the chain
// that runs them in order.
package tweetfilter

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	ErrMalformedTweet = errors.New("malformed tweet json")
	ErrMissingField   = errors.New("tweet field missing")
)

////////////////////////////////////////////////////////////////////////////////

// Filter decides whether a raw tweet record is kept. An error aborts whatever
// is evaluating the filter.
type Filter interface {
	Filter(raw []byte) (bool, error)
}

type FilterFunc func(raw []byte) (bool, error)

func (f FilterFunc) Filter(raw []byte) (bool, error) {
	return f(raw)
}

////////////////////////////////////////////////////////////////////////////////

// Chain accepts a record iff every filter accepts it. Filters run in the order
// they were added and evaluation stops at the first rejection or error, so
// later filters never see a rejected record.
type Chain struct {
	filters []Filter
}

func NewChain(filters ...Filter) *Chain {
	c := &Chain{}
	c.Add(filters...)
	return c
}

func (c *Chain) Add(filters ...Filter) {
	c.filters = append(c.filters, filters...)
}

func (c *Chain) Len() int {
	return len(c.filters)
}

func (c *Chain) Filter(raw []byte) (bool, error) {
	for _, f := range c.filters {
		ok, err := f.Filter(raw)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

////////////////////////////////////////////////////////////////////////////////

// field reads path from raw, failing when raw is not JSON or path is absent.
func field(raw []byte, path string) (gjson.Result, error) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, ErrMalformedTweet
	}
	res := gjson.GetBytes(raw, path)
	if !res.Exists() {
		return res, fmt.Errorf("%w: %s", ErrMissingField, path)
	}
	return res, nil
}
