package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taskly/internal/store"
	"github.com/mesh-intelligence/taskly/internal/testutil"
	"github.com/mesh-intelligence/taskly/internal/view"
	"github.com/mesh-intelligence/taskly/pkg/types"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st := store.New(store.Options{
		Now:           func() time.Time { return now },
		Location:      time.UTC,
		NewID:         testutil.SequentialIDs("t"),
		Logger:        log.New(io.Discard, "", 0),
		ShowCompleted: true,
	})
	return NewServer(st, nil), st
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func seed(t *testing.T, st *store.Store, titles ...string) []types.Task {
	t.Helper()
	out := make([]types.Task, 0, len(titles))
	for _, title := range titles {
		task, err := st.Create(context.Background(), title, nil, nil)
		require.NoError(t, err)
		out = append(out, task)
	}
	return out
}

func TestCreateTask(t *testing.T) {
	srv, st := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/tasks", `{"title":"  Buy milk ","dueDate":"2026-03-11T08:00:00Z","notes":"2 litres"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	task := decode[types.Task](t, rec)
	assert.Equal(t, "Buy milk", task.Title)
	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.Equal(time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, st.Len())
}

func TestErrorMapping(t *testing.T) {
	srv, st := newTestServer(t)
	seed(t, st, "a")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "empty title", method: http.MethodPost, path: "/tasks", body: `{"title":"   "}`, want: http.StatusBadRequest},
		{name: "malformed body", method: http.MethodPost, path: "/tasks", body: `{"title":`, want: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, path: "/tasks", body: `{"title":"x","priority":1}`, want: http.StatusBadRequest},
		{name: "missing task", method: http.MethodGet, path: "/tasks/nope", want: http.StatusNotFound},
		{name: "toggle missing", method: http.MethodPost, path: "/tasks/nope/toggle", want: http.StatusNotFound},
		{name: "delete missing", method: http.MethodDelete, path: "/tasks/nope", want: http.StatusNotFound},
		{name: "bad position", method: http.MethodPost, path: "/tasks/reorder", body: `{"from":[5],"to":0}`, want: http.StatusBadRequest},
		{name: "reorder without to", method: http.MethodPost, path: "/tasks/reorder", body: `{"from":[0]}`, want: http.StatusBadRequest},
		{name: "bad sort", method: http.MethodGet, path: "/tasks?sort=priority", want: http.StatusBadRequest},
		{name: "bad date", method: http.MethodGet, path: "/tasks?date=someday", want: http.StatusBadRequest},
		{name: "bad all flag", method: http.MethodGet, path: "/tasks?all=maybe", want: http.StatusBadRequest},
		{name: "empty bulk delete", method: http.MethodPost, path: "/tasks/delete", body: `{"ids":[]}`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code)
			body := decode[map[string]string](t, rec)
			assert.NotEmpty(t, body["error"])
		})
	}
	assert.Equal(t, 1, st.Len())
}

func TestListTasksQuery(t *testing.T) {
	srv, st := newTestServer(t)
	tasks := seed(t, st, "Banana", "apple", "Cherry pie")
	require.NoError(t, st.ToggleCompletion(context.Background(), tasks[2].ID))

	rec := do(t, srv, http.MethodGet, "/tasks?sort=title", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]types.Task](t, rec)
	assert.Equal(t, []string{"apple", "Banana", "Cherry pie"}, titles(got))

	rec = do(t, srv, http.MethodGet, "/tasks?all=false", "")
	assert.Equal(t, []string{"Banana", "apple"}, titles(decode[[]types.Task](t, rec)))

	rec = do(t, srv, http.MethodGet, "/tasks?q=PIE", "")
	assert.Equal(t, []string{"Cherry pie"}, titles(decode[[]types.Task](t, rec)))
}

func TestGroupedTasks(t *testing.T) {
	srv, st := newTestServer(t)
	due := now.Add(2 * time.Hour)
	_, err := st.Create(context.Background(), "today", &due, nil)
	require.NoError(t, err)
	seed(t, st, "someday")

	rec := do(t, srv, http.MethodGet, "/tasks/grouped", "")
	require.Equal(t, http.StatusOK, rec.Code)
	groups := decode[view.Groups](t, rec)
	require.Len(t, groups, 4)
	assert.Equal(t, types.SectionOverdue, groups[0].Section)
	assert.Equal(t, []string{"today"}, titles(groups.Get(types.SectionToday)))
	assert.Equal(t, []string{"someday"}, titles(groups.Get(types.SectionNoDueDate)))
	assert.Equal(t, "No Due Date", groups[3].Title)
}

func TestPatchTask(t *testing.T) {
	srv, st := newTestServer(t)
	due := now.Add(time.Hour)
	notes := "n"
	task, err := st.Create(context.Background(), "draft", &due, &notes)
	require.NoError(t, err)

	rec := do(t, srv, http.MethodPatch, "/tasks/"+task.ID, `{"title":"final","dueDate":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[types.Task](t, rec)
	assert.Equal(t, "final", got.Title)
	assert.Nil(t, got.DueDate)
	require.NotNil(t, got.Notes, "absent key leaves notes alone")
	assert.Equal(t, "n", *got.Notes)

	rec = do(t, srv, http.MethodPatch, "/tasks/"+task.ID, `{"notes":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[types.Task](t, rec).Notes)

	rec = do(t, srv, http.MethodPatch, "/tasks/"+task.ID, `{"colour":"red"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggleAndDelete(t *testing.T) {
	srv, st := newTestServer(t)
	tasks := seed(t, st, "a", "b", "c")

	rec := do(t, srv, http.MethodPost, "/tasks/"+tasks[0].ID+"/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[types.Task](t, rec).IsCompleted)

	rec = do(t, srv, http.MethodDelete, "/tasks/"+tasks[0].ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	body, _ := json.Marshal(deleteRequest{IDs: []string{tasks[1].ID, tasks[2].ID}})
	rec = do(t, srv, http.MethodPost, "/tasks/delete", string(body))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, st.Len())
}

func TestReorder(t *testing.T) {
	srv, st := newTestServer(t)
	tasks := seed(t, st, "Banana", "Apple")

	rec := do(t, srv, http.MethodPost, "/tasks/reorder", `{"from":[1],"to":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{tasks[1].ID, tasks[0].ID}, decode[[]string](t, rec))
}

func TestWeek(t *testing.T) {
	srv, st := newTestServer(t)
	due := now.AddDate(0, 0, 1)
	_, err := st.Create(context.Background(), "tomorrow", &due, nil)
	require.NoError(t, err)

	rec := do(t, srv, http.MethodGet, "/week?date=2026-03-12", "")
	require.Equal(t, http.StatusOK, rec.Code)
	days := decode[[]dayCount](t, rec)
	require.Len(t, days, 7)
	assert.Equal(t, "2026-03-09", days[0].Date)
	assert.Equal(t, dayCount{Date: "2026-03-11", Count: 1}, days[2])
}

func TestRunShutsDownOnCancel(t *testing.T) {
	srv, st := newTestServer(t)
	seed(t, st, "served")

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0", ready) }()

	addr := <-ready
	resp, err := http.Get("http://" + addr + "/tasks")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, buf.String(), "served")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func titles(tasks []types.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}
