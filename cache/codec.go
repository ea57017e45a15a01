package cache

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Entry is the persisted record for one key. Value holds the JSON encoding of
// the cached value and Expiry the absolute expiry in Unix milliseconds.
type Entry struct {
	Value  json.RawMessage `json:"value" msgpack:"value"`
	Expiry int64           `json:"expiry" msgpack:"expiry"`
}

// ExpiresAt returns the expiry as a time.Time.
func (e Entry) ExpiresAt() time.Time {
	return time.UnixMilli(e.Expiry)
}

// Expired reports whether the entry is stale at now. An entry is still fresh
// at the exact millisecond of its expiry.
func (e Entry) Expired(now time.Time) bool {
	return now.UnixMilli() > e.Expiry
}

// Codec converts entries to and from the string form stored in an Area.
type Codec interface {
	Encode(e Entry) (string, error)
	Decode(s string) (Entry, error)
}

// JSONCodec stores entries as `{"value":...,"expiry":...}`.
type JSONCodec struct{}

var _ Codec = JSONCodec{}

func (JSONCodec) Encode(e Entry) (string, error) {
	buf, err := json.Marshal(e)
	if err != nil {
		return "", errors.Wrap(err, "encoding entry")
	}
	return string(buf), nil
}

func (JSONCodec) Decode(s string) (Entry, error) {
	var e Entry
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		return Entry{}, errors.Wrap(err, "decoding entry")
	}
	if len(e.Value) == 0 {
		return Entry{}, errors.New("decoding entry: missing value")
	}
	return e, nil
}

// MsgpackCodec stores entries as base64 encoded msgpack, which is smaller than
// JSON for large payloads such as game summaries.
type MsgpackCodec struct{}

var _ Codec = MsgpackCodec{}

func (MsgpackCodec) Encode(e Entry) (string, error) {
	buf, err := msgpack.Marshal(&e)
	if err != nil {
		return "", errors.Wrap(err, "encoding entry")
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func (MsgpackCodec) Decode(s string) (Entry, error) {
	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Entry{}, errors.Wrap(err, "decoding entry")
	}
	var e Entry
	if err := msgpack.Unmarshal(buf, &e); err != nil {
		return Entry{}, errors.Wrap(err, "decoding entry")
	}
	if len(e.Value) == 0 {
		return Entry{}, errors.New("decoding entry: missing value")
	}
	return e, nil
}
