package journal

import (
	"encoding/json"
	"fmt"
)

// RawEvent is one parsed journal line. Fields keeps the loosely-typed view
// for filter expressions; Line keeps the original bytes so the mapper can
// run its own validating decode into a typed variant.
type RawEvent struct {
	Name      string
	Timestamp string
	Line      []byte
	Fields    map[string]interface{}
}

// ParseLine decodes a single journal line. A line without an "event" name is
// rejected; everything else is handed on as-is for the mapper to judge.
func ParseLine(line []byte) (RawEvent, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(line, &fields); err != nil {
		return RawEvent{}, fmt.Errorf("malformed journal line: %w", err)
	}

	name, _ := fields["event"].(string)
	if name == "" {
		return RawEvent{}, fmt.Errorf("journal line has no event name")
	}

	timestamp, _ := fields["timestamp"].(string)

	raw := RawEvent{
		Name:      name,
		Timestamp: timestamp,
		Line:      append([]byte(nil), line...),
		Fields:    fields,
	}
	return raw, nil
}

// StringField returns a top-level string field, or "" when absent or of a
// different type.
func (e RawEvent) StringField(key string) string {
	v, _ := e.Fields[key].(string)
	return v
}
