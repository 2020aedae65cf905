package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
// Screen Names
////////////////////////////////////////////////////////////////////////////////

// ReadScreenNames reads one screen name per line, trimmed, skipping blank lines.
func ReadScreenNames(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseScreenNames(file)
}

func ParseScreenNames(r io.Reader) ([]string, error) {
	names := []string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names, scanner.Err()
}

func WriteScreenNames(path string, names []string) error {
	return writeAtomic(path, func(w *bufio.Writer) error {
		for _, name := range names {
			if _, err := w.WriteString(name + "\n"); err != nil {
				return err
			}
		}
		return nil
	})
}

////////////////////////////////////////////////////////////////////////////////
// Tweets
////////////////////////////////////////////////////////////////////////////////

// WriteTweets writes one compact JSON record per line. The file appears only
// once every record is written.
func WriteTweets(path string, tweets []json.RawMessage) error {
	return writeAtomic(path, func(w *bufio.Writer) error {
		var line bytes.Buffer
		for i, tweet := range tweets {
			line.Reset()
			if err := json.Compact(&line, tweet); err != nil {
				return fmt.Errorf("tweet %d: %w", i, err)
			}
			line.WriteByte('\n')
			if _, err := w.Write(line.Bytes()); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadTweets reads an LDJSON file back, skipping blank lines. A missing file
// reads as no tweets.
func ReadTweets(path string) ([]json.RawMessage, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	tweets := []json.RawMessage{}
	r := bufio.NewReader(file)
	for {
		line, err := r.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			tweets = append(tweets, json.RawMessage(trimmed))
		}
		if err == io.EOF {
			return tweets, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// WriteSentinel creates an empty file at path.
func WriteSentinel(path string) error {
	return writeAtomic(path, func(w *bufio.Writer) error { return nil })
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

////////////////////////////////////////////////////////////////////////////////

func writeAtomic(path string, write func(w *bufio.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := write(w); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
