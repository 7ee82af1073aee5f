package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventUnmarshalAcceptsNumericAndStringIDs(t *testing.T) {
	var events []Event
	err := json.Unmarshal([]byte(`[
		{"id": 1, "title": "AI Summit", "tags": ["ai"]},
		{"id": "evt-2", "title": "Night Market"},
		{"title": "No id"}
	]`), &events)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "1", events[0].ID)
	assert.Equal(t, []string{"ai"}, events[0].Tags)
	assert.Equal(t, "evt-2", events[1].ID)
	assert.Equal(t, "", events[2].ID)
}

func TestEventUnmarshalRejectsObjectID(t *testing.T) {
	var ev Event
	err := json.Unmarshal([]byte(`{"id": {"x": 1}}`), &ev)
	assert.Error(t, err)
}

func TestParseEventTime(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-01T10:00", time.Date(2025, 3, 1, 10, 0, 0, 0, loc)},
		{"2025-03-01T10:00:30", time.Date(2025, 3, 1, 10, 0, 30, 0, loc)},
		{"2025-03-01", time.Date(2025, 3, 1, 0, 0, 0, 0, loc)},
		{"2025-03-01T10:00:00Z", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseEventTime(tt.in, loc)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: want %v got %v", tt.in, tt.want, got)
	}

	_, err := ParseEventTime("next friday", loc)
	assert.Error(t, err)
	_, err = ParseEventTime("  ", loc)
	assert.Error(t, err)
}

func TestMessageText(t *testing.T) {
	m := Message{Role: RoleAssistant, Content: "hello"}
	assert.Equal(t, "hello", m.Text())

	m = Message{Role: RoleAssistant, Result: &EventResult{
		Count: 8,
		Items: []Event{{Title: "AI Summit", Date: "2025-03-01T10:00"}, {Title: "Hack Night"}},
	}}
	assert.Equal(t, "Found 8 events: AI Summit (2025-03-01T10:00); Hack Night", m.Text())

	m = Message{Result: &EventResult{Count: 1, Items: []Event{{Title: "Solo"}}}}
	assert.Equal(t, "Found 1 event: Solo", m.Text())
}
