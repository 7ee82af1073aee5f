package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"campusbot/internal/model"
)

type document struct {
	Events []json.RawMessage `json:"events"`
}

// groupHeader is the part of an entry needed to tell groups from events.
type groupHeader struct {
	Category string            `json:"category"`
	Events   []json.RawMessage `json:"events"`
}

// LoadFile reads an events document from path.
func LoadFile(path string) ([]model.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	events, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// Decode reads a document of the form {"events": [...]}. Entries are either
// events or groups carrying their own "events" array; groups are flattened
// recursively and children without a category take the group's.
func Decode(r io.Reader) ([]model.Event, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode events document: %w", err)
	}
	out := make([]model.Event, 0, len(doc.Events))
	if err := flatten(doc.Events, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(entries []json.RawMessage, category string, out *[]model.Event) error {
	for i, raw := range entries {
		var hdr groupHeader
		if err := json.Unmarshal(raw, &hdr); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if hdr.Events != nil {
			groupCategory := hdr.Category
			if groupCategory == "" {
				groupCategory = category
			}
			if err := flatten(hdr.Events, groupCategory, out); err != nil {
				return fmt.Errorf("group %d: %w", i, err)
			}
			continue
		}

		var ev model.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if ev.Category == "" {
			ev.Category = category
		}
		*out = append(*out, ev)
	}
	return nil
}
