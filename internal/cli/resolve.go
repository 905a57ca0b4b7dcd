package cli

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/todo/internal/core"
)

// resolveTaskID expands a unique id prefix to the full task id. An exact
// match always wins. Unknown ids are returned unchanged so the store reports
// them.
func resolveTaskID(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("task id is required")
	}

	var matches []string
	for _, t := range TaskStore.Tasks() {
		if t.ID == arg {
			return arg, nil
		}
		if strings.HasPrefix(t.ID, arg) {
			matches = append(matches, t.ID)
		}
	}

	switch len(matches) {
	case 0:
		return arg, nil
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("task id prefix %q is ambiguous (%d matches): %w", arg, len(matches), core.ErrTaskNotFound)
	}
}
