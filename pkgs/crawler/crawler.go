package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

// DataGetter is one rate limited endpoint.
type DataGetter interface {
	GetData(ctx context.Context, params url.Values) ([]byte, error)
}

////////////////////////////////////////////////////////////////////////////////

// splitArray returns the elements of a JSON array body as raw records.
func splitArray(body []byte) ([]json.RawMessage, error) {
	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("expected a json array, got %.40q", string(body))
	}

	items := parsed.Array()
	records := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		records = append(records, json.RawMessage(item.Raw))
	}
	return records, nil
}

// TweetID reads the numeric id of a tweet, preferring id_str over id.
func TweetID(raw []byte) (uint64, error) {
	if idStr := gjson.GetBytes(raw, "id_str"); idStr.Type == gjson.String {
		return strconv.ParseUint(idStr.String(), 10, 64)
	}
	if id := gjson.GetBytes(raw, "id"); id.Type == gjson.Number {
		return strconv.ParseUint(id.Raw, 10, 64)
	}
	return 0, fmt.Errorf("tweet has no id")
}
