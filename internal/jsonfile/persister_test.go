package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taskly/pkg/types"
)

func newPersister(t *testing.T) (*Persister, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	p, err := New(t.TempDir(), log.New(&logs, "", 0))
	require.NoError(t, err)
	return p, &logs
}

func sampleSnapshot() types.Snapshot {
	due := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	notes := "two litres"
	empty := ""
	return types.Snapshot{
		{ID: "0190-a", Title: "Buy milk", DueDate: &due, Notes: &notes},
		{ID: "0190-b", Title: "Call mom", IsCompleted: true},
		{ID: "0190-c", Title: "Empty notes", Notes: &empty},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p, _ := newPersister(t)
	ctx := context.Background()
	want := sampleSnapshot()

	require.NoError(t, p.Save(ctx, want))
	got, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveWritesArrayWithAbsentOptionalFields(t *testing.T) {
	p, _ := newPersister(t)
	require.NoError(t, p.Save(context.Background(), types.Snapshot{{ID: "x", Title: "No extras"}}))

	data, err := os.ReadFile(p.Path())
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.NotContains(t, raw[0], "dueDate")
	assert.NotContains(t, raw[0], "notes")
	assert.Equal(t, "x", raw[0]["id"])
}

func TestSaveEmptySnapshotWritesEmptyArray(t *testing.T) {
	p, _ := newPersister(t)
	require.NoError(t, p.Save(context.Background(), nil))

	data, err := os.ReadFile(p.Path())
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	p, _ := newPersister(t)

	got, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoadCorruptContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "blank file", content: "  \n", wantErr: false},
		{name: "truncated array", content: `[{"id":"a","title":"x"`, wantErr: true},
		{name: "object instead of array", content: `{"id":"a"}`, wantErr: true},
		{name: "binary garbage", content: "\x00\x01\x02", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newPersister(t)
			require.NoError(t, os.WriteFile(p.Path(), []byte(tt.content), 0o644))

			got, err := p.Load(context.Background())
			assert.NotNil(t, got)
			assert.Empty(t, got)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrCorruptSnapshot)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadSkipsInvalidRecords(t *testing.T) {
	p, logs := newPersister(t)
	content := `[
  {"id":"a","title":"Keep me"},
  {"id":"","title":"No id"},
  {"id":"b","title":"   "},
  {"id":"c","title":"Bad date","dueDate":"yesterday"},
  {"id":"a","title":"Duplicate"},
  {"id":"d","title":"Keep me too","isCompleted":true}
]`
	require.NoError(t, os.WriteFile(p.Path(), []byte(content), 0o644))

	got, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d"}, got.IDs())
	assert.Equal(t, 4, strings.Count(logs.String(), "warning:"))
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	p, _ := newPersister(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Save(ctx, sampleSnapshot()[:i%3+1]))
	}

	entries, err := os.ReadDir(filepath.Dir(p.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, FileName, entries[0].Name())
}

func TestSaveHonoursCancelledContext(t *testing.T) {
	p, _ := newPersister(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Save(ctx, sampleSnapshot()), context.Canceled)
	_, err := os.Stat(p.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestJSONLRoundTripSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	records := []json.RawMessage{
		json.RawMessage(`{"id":"a"}`),
		json.RawMessage(`{"id":"b"}`),
	}
	require.NoError(t, WriteJSONL(path, records))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, skipped, err := ReadJSONL(path)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, got, 2)
	assert.JSONEq(t, `{"id":"b"}`, string(got[1]))
}

func TestReadJSONLMissingFile(t *testing.T) {
	_, _, err := ReadJSONL(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.True(t, os.IsNotExist(err))
}

func TestSavedAtFollowsSnapshotFile(t *testing.T) {
	p, _ := newPersister(t)
	ctx := context.Background()

	at, err := p.SavedAt(ctx)
	require.NoError(t, err)
	assert.True(t, at.IsZero())

	require.NoError(t, p.Save(ctx, sampleSnapshot()))
	mtime := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(p.Path(), mtime, mtime))

	at, err = p.SavedAt(ctx)
	require.NoError(t, err)
	assert.True(t, at.Equal(mtime))
}
