package formatter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blueduck/internal/aggregator"
)

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer

	feed := Feed{
		GeneratedAt: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Report:      aggregator.Report{RunID: "run-1"},
		Items:       sampleItems()[:1],
	}
	require.NoError(t, WriteJSON(&buf, feed, false))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "2024-03-15T00:00:00Z", decoded["generatedAt"])

	items := decoded["items"].([]any)
	require.Len(t, items, 1)

	item := items[0].(map[string]any)
	assert.Equal(t, "2024-03-01T00:00:00Z", item["date"])
	assert.Equal(t, "https://www.courtlistener.com/opinion/1/smith-v-epa/", item["link"])
	assert.NotContains(t, item, "sourceType")
	assert.Equal(t, "Smith v. EPA", item["title"])
}

func TestWriteJSON_EmptyItemsIsArray(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteJSON(&buf, Feed{}, false))
	assert.Contains(t, buf.String(), `"items":[]`)
}

func TestSaveJSON_BacksUpExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "feed.json")

	require.NoError(t, SaveJSON(Feed{Report: aggregator.Report{RunID: "first"}}, path))
	require.NoError(t, SaveJSON(Feed{Report: aggregator.Report{RunID: "second"}}, path))

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(current), `"runId": "second"`)

	backup, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Contains(t, string(backup), `"runId": "first"`)
}
