package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mesh-intelligence/taskly/internal/store"
	"github.com/mesh-intelligence/taskly/pkg/types"
)

// shortIDLen is the fewest id characters human output shows.
const shortIDLen = 8

var errAmbiguousID = errors.New("ambiguous task id")

// resolveID returns the full id of the task whose id equals or uniquely
// starts with arg.
func resolveID(st *store.Store, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("%w: empty id", types.ErrNotFound)
	}
	var matches []string
	for _, id := range st.Tasks().IDs() {
		if id == arg {
			return id, nil
		}
		if strings.HasPrefix(id, arg) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", types.ErrNotFound, arg)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s matches %d tasks", errAmbiguousID, arg, len(matches))
	}
}

// checkSaved turns a failed save into a system error.
func checkSaved(st *store.Store) error {
	if err := st.LastPersistError(); err != nil {
		return sysErr("saving tasks: %w", err)
	}
	return nil
}

// shortIDs maps full ids to the prefixes human output prints.
type shortIDs map[string]string

// uniquePrefixes returns, for each id, its shortest prefix of at least
// shortIDLen characters that no other id in ids starts with.
func uniquePrefixes(ids []string) shortIDs {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	out := make(shortIDs, len(sorted))
	for i, id := range sorted {
		n := shortIDLen
		if i > 0 {
			n = max(n, commonPrefixLen(id, sorted[i-1])+1)
		}
		if i+1 < len(sorted) {
			n = max(n, commonPrefixLen(id, sorted[i+1])+1)
		}
		out[id] = id[:min(n, len(id))]
	}
	return out
}

func commonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// of returns the printed prefix for id.
func (s shortIDs) of(id string) string {
	if p, ok := s[id]; ok {
		return p
	}
	return id[:min(shortIDLen, len(id))]
}

// taskPrefixes computes printed prefixes over every task in the open store.
func (a *app) taskPrefixes() shortIDs {
	if a.store == nil {
		return shortIDs{}
	}
	return uniquePrefixes(a.store.Tasks().IDs())
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// formatTask renders one task line: check box, short id, title, due date.
func (a *app) formatTask(t types.Task, ids shortIDs) string {
	box := "[ ]"
	if t.IsCompleted {
		box = "[x]"
	}
	line := fmt.Sprintf("%s %s  %s", box, ids.of(t.ID), t.Title)
	if t.DueDate != nil {
		line += "  (due " + t.DueDate.In(a.loc).Format("2006-01-02 15:04") + ")"
	}
	return line
}

// printTask writes a task in the selected output mode.
func (a *app) printTask(w io.Writer, t types.Task) error {
	if a.flags.jsonMode {
		return writeJSON(w, t)
	}
	_, err := fmt.Fprintln(w, a.formatTask(t, a.taskPrefixes()))
	if err == nil && t.Notes != nil && *t.Notes != "" {
		_, err = fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(*t.Notes, "\n", "\n    "))
	}
	return err
}
