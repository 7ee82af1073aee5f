package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusbot/internal/ics"
	"campusbot/internal/model"
)

const portalDoc = `{
  "events": [
    {"id": 1, "title": "AI Workshop", "date": "2025-03-01T14:00:00", "location": "Hall B", "category": "technical", "status": "upcoming", "tags": ["ai"]},
    {
      "name": "Culture week",
      "category": "cultural",
      "events": [
        {"id": "c-1", "title": "Lantern Night", "date": "2025-03-04", "location": "Main Square"},
        {"id": "c-2", "title": "Debate Final", "date": "2025-03-05", "category": "academic"},
        {"name": "Nested", "events": [{"id": "c-3", "title": "Folk Concert", "date": "2025-03-06"}]}
      ]
    }
  ]
}`

const feed = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//campus//EN\r\n" +
	"BEGIN:VEVENT\r\nUID:seminar\r\nDTSTAMP:20250101T000000Z\r\n" +
	"DTSTART:20250305T090000Z\r\nDTEND:20250305T100000Z\r\n" +
	"SUMMARY:Research Seminar\r\nCATEGORIES:Academic\r\nEND:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDecode_FlattensGroups(t *testing.T) {
	events, err := Decode(strings.NewReader(portalDoc))
	require.NoError(t, err)
	require.Len(t, events, 4)

	assert.Equal(t, "1", events[0].ID)
	assert.Equal(t, "technical", events[0].Category)

	assert.Equal(t, "Lantern Night", events[1].Title)
	assert.Equal(t, "cultural", events[1].Category, "inherits group category")
	assert.Equal(t, "academic", events[2].Category, "own category wins")
	assert.Equal(t, "cultural", events[3].Category, "inherited through nested groups")
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"events": [`))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`{"events": [42]}`))
	assert.Error(t, err)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
}

func TestCatalog_RefreshMergesSources(t *testing.T) {
	c := New(Config{
		DataPath: writeFile(t, "events.json", portalDoc),
		ICS:      []ics.Source{{ID: "research", URL: writeFile(t, "feed.ics", feed)}},
		Location: time.UTC,
		Now:      fixedNow,
	})
	require.NoError(t, c.Refresh(context.Background()))

	events := c.Events()
	require.Len(t, events, 5)
	assert.Equal(t, "file", events[0].Source)
	last := events[4]
	assert.Equal(t, "Research Seminar", last.Title)
	assert.Equal(t, "research", last.Source)
	assert.Equal(t, "2025-03-05T09:00:00", last.Date)
	assert.Equal(t, fixedNow(), c.UpdatedAt())
	assert.Equal(t, 5, c.Len())
}

func TestCatalog_PartialFailureStillRefreshes(t *testing.T) {
	c := New(Config{
		DataPath: filepath.Join(t.TempDir(), "missing.json"),
		ICS:      []ics.Source{{ID: "research", URL: writeFile(t, "feed.ics", feed)}},
		Location: time.UTC,
		Now:      fixedNow,
	})
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 1, c.Len())
}

func TestCatalog_KeepsSnapshotWhenAllSourcesFail(t *testing.T) {
	path := writeFile(t, "events.json", portalDoc)
	c := New(Config{DataPath: path, Now: fixedNow})
	require.NoError(t, c.Refresh(context.Background()))
	require.Equal(t, 4, c.Len())

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
	err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoEvents)
	assert.Equal(t, 4, c.Len(), "previous snapshot kept")
}

func TestCatalog_EventsReturnsCopy(t *testing.T) {
	c := NewStatic([]model.Event{{ID: "1", Title: "Original"}})
	got := c.Events()
	got[0].Title = "Mutated"
	assert.Equal(t, "Original", c.Events()[0].Title)
	assert.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 1, c.Len())
}

func TestScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler(NewStatic(nil), "every tuesday", time.UTC)
	assert.Error(t, err)
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := NewScheduler(NewStatic(nil), "*/15 * * * *", time.UTC)
	require.NoError(t, err)
	s.Start()
	assert.False(t, s.Next().IsZero())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
