// Package tweetreader reads line-delimited tweet files through a filter chain.
package tweetreader

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/WangWilly/xCrawl/pkgs/tweetfilter"
)

////////////////////////////////////////////////////////////////////////////////

// Reader yields the tweets of a line-delimited JSON stream that pass its
// filters. ValidJSON always runs first. Rejected lines are skipped silently;
// a filter error stops the read and is returned to the caller.
type Reader struct {
	chain  *tweetfilter.Chain
	src    *bufio.Reader
	closer io.Closer
	line   int
}

func New(r io.Reader, filters ...tweetfilter.Filter) *Reader {
	chain := tweetfilter.NewChain(tweetfilter.ValidJSON{})
	chain.Add(filters...)

	reader := &Reader{
		chain: chain,
		src:   bufio.NewReaderSize(r, 64*1024),
	}
	if closer, ok := r.(io.Closer); ok {
		reader.closer = closer
	}
	return reader
}

// Open reads the file at path. Close releases it.
func Open(path string, filters ...tweetfilter.Filter) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return New(file, filters...), nil
}

// AddFilter appends filters after the ones already installed.
func (r *Reader) AddFilter(filters ...tweetfilter.Filter) {
	r.chain.Add(filters...)
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

////////////////////////////////////////////////////////////////////////////////

// Next returns the next accepted tweet, or io.EOF at the end of the stream.
func (r *Reader) Next() (json.RawMessage, error) {
	for {
		line, readErr := r.src.ReadBytes('\n')
		if len(line) == 0 && readErr != nil {
			return nil, readErr
		}
		r.line++

		line = bytes.TrimRight(line, "\r\n")
		ok, err := r.chain.Filter(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		if ok {
			return json.RawMessage(line), nil
		}
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, readErr
		}
	}
}

// All ranges over the accepted tweets. Iteration ends at the end of the
// stream or after yielding an error.
func (r *Reader) All() iter.Seq2[json.RawMessage, error] {
	return func(yield func(json.RawMessage, error) bool) {
		for {
			tweet, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(tweet, err) || err != nil {
				return
			}
		}
	}
}
