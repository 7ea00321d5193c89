// Package record defines the normalized log record and the dataset that
// groups the records of one load.
package record

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"loglens/internal/value"
)

// Record is either a PlainText line or a Structured map. The unexported
// marker keeps the variant set closed.
type Record interface {
	isRecord()
}

// PlainText is a record that carries only a raw string.
type PlainText string

// Structured is a record whose content is a key/value map.
type Structured struct {
	Fields value.Map
}

func (PlainText) isRecord()  {}
func (Structured) isRecord() {}

// MarshalJSON renders the fields as a JSON object.
func (s Structured) MarshalJSON() ([]byte, error) {
	if s.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(value.ToAny(s.Fields))
}

// FromValue wraps a decoded value: maps become Structured records, text
// becomes PlainText, and any other value becomes PlainText holding its
// JSON rendering.
func FromValue(v value.Value) Record {
	switch x := v.(type) {
	case value.Map:
		return Structured{Fields: x}
	case value.Text:
		return PlainText(x)
	default:
		return PlainText(value.JSON(v))
	}
}

// ToAny converts r to plain Go data: a string or a map[string]any.
func ToAny(r Record) any {
	switch x := r.(type) {
	case PlainText:
		return string(x)
	case Structured:
		return value.ToAny(x.Fields)
	default:
		return nil
	}
}

// FromAny converts plain Go data back into a Record. Strings become
// PlainText, string-keyed maps become Structured; anything else is
// rejected.
func FromAny(x any) (Record, error) {
	v, err := value.FromAny(x)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case value.Text:
		return PlainText(t), nil
	case value.Map:
		return Structured{Fields: t}, nil
	default:
		return nil, fmt.Errorf("record must be a string or an object, got %s", v.Kind())
	}
}

// String returns the raw text of a PlainText record or the canonical JSON
// of a Structured one.
func String(r Record) string {
	switch x := r.(type) {
	case PlainText:
		return string(x)
	case Structured:
		if x.Fields == nil {
			return "{}"
		}
		return value.JSON(x.Fields)
	default:
		return ""
	}
}

// Dataset is the record sequence produced by one load or transform. The
// ID changes whenever the record set is replaced, so caches keyed by it
// never see stale entries.
type Dataset struct {
	ID      uuid.UUID
	Records []Record
}

// NewDataset wraps records under a freshly minted ID.
func NewDataset(records []Record) *Dataset {
	return &Dataset{ID: uuid.New(), Records: records}
}

// Len returns the number of records, tolerating a nil receiver.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}
