package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/mesh-intelligence/taskly/internal/view"
	"github.com/mesh-intelligence/taskly/pkg/types"
)

// dateParam parses the optional date query parameter.
func (s *Server) dateParam(r *http.Request) (*time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return nil, nil
	}
	d, err := view.ParseDate(raw, s.store.Env().Now, s.store.Location())
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GET /tasks?all=&date=&q=&sort=
func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := view.Query{
		ShowCompleted: s.store.ShowCompleted(),
		Search:        r.URL.Query().Get("q"),
		Sort:          s.store.SortMode(),
	}
	if raw := r.URL.Query().Get("all"); raw != "" {
		all, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: all=%q", errBadRequest, raw))
			return
		}
		q.ShowCompleted = all
	}
	if raw := r.URL.Query().Get("sort"); raw != "" {
		mode, err := types.ParseSortMode(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		q.Sort = mode
	}
	date, err := s.dateParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q.Date = date
	writeJSON(w, http.StatusOK, s.store.View(q))
}

// GET /tasks/grouped?date=&q=
func (s *Server) groupedTasks(w http.ResponseWriter, r *http.Request) {
	date, err := s.dateParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.GroupedTasks(date, r.URL.Query().Get("q")))
}

type createRequest struct {
	Title   string     `json:"title"`
	DueDate *time.Time `json:"dueDate"`
	Notes   *string    `json:"notes"`
}

// POST /tasks
func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.store.Create(r.Context(), req.Title, req.DueDate, req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// GET /tasks/{id}
func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// patchFromJSON builds a TaskPatch from a partial task document. A key that
// is present with a null value clears the field; an absent key leaves it.
func patchFromJSON(fields map[string]json.RawMessage) (types.TaskPatch, error) {
	var patch types.TaskPatch
	for key, raw := range fields {
		switch key {
		case "title":
			var title string
			if err := json.Unmarshal(raw, &title); err != nil {
				return patch, fmt.Errorf("%w: title: %v", errBadRequest, err)
			}
			patch.Title = &title
		case "dueDate":
			patch.SetDue = true
			if err := json.Unmarshal(raw, &patch.DueDate); err != nil {
				return patch, fmt.Errorf("%w: dueDate: %v", errBadRequest, err)
			}
		case "notes":
			patch.SetNotes = true
			if err := json.Unmarshal(raw, &patch.Notes); err != nil {
				return patch, fmt.Errorf("%w: notes: %v", errBadRequest, err)
			}
		default:
			return patch, fmt.Errorf("%w: unknown field %q", errBadRequest, key)
		}
	}
	return patch, nil
}

// PATCH /tasks/{id}
func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	if err := decodeBody(r, &fields); err != nil {
		s.writeError(w, r, err)
		return
	}
	patch, err := patchFromJSON(fields)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id := mux.Vars(r)["id"]
	if err := s.store.Update(r.Context(), id, patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.getTask(w, r)
}

// POST /tasks/{id}/toggle
func (s *Server) toggleTask(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ToggleCompletion(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.getTask(w, r)
}

// DELETE /tasks/{id}
func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

// POST /tasks/delete
func (s *Server) deleteTasks(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.IDs) == 0 {
		s.writeError(w, r, fmt.Errorf("%w: ids must not be empty", errBadRequest))
		return
	}
	if err := s.store.Delete(r.Context(), req.IDs...); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reorderRequest struct {
	From []int `json:"from"`
	To   *int  `json:"to"`
}

// POST /tasks/reorder
func (s *Server) reorderTasks(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.To == nil {
		s.writeError(w, r, fmt.Errorf("%w: to is required", errBadRequest))
		return
	}
	if err := s.store.Reorder(r.Context(), req.From, *req.To); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Tasks().IDs())
}

type dayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// GET /week?date=
func (s *Server) week(w http.ResponseWriter, r *http.Request) {
	ref := s.store.Env().Now
	date, err := s.dateParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if date != nil {
		ref = *date
	}
	days, counts := s.store.Week(ref)
	out := make([]dayCount, len(days))
	for i, d := range days {
		key := view.DayKey(d, s.store.Location())
		out[i] = dayCount{Date: key, Count: counts[key]}
	}
	writeJSON(w, http.StatusOK, out)
}
