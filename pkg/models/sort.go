package models

import (
	"fmt"
	"strings"
)

// SortKey selects the attribute used to order the task list.
type SortKey string

const (
	SortByDateCreated SortKey = "date_created"
	SortByStatus      SortKey = "status"
)

// SortDirection multiplies the comparison result: 1 keeps natural order,
// -1 reverses it.
type SortDirection int

const (
	Ascending  SortDirection = 1
	Descending SortDirection = -1
)

// SortSpec is transient view state and is never persisted.
type SortSpec struct {
	Key       SortKey
	Direction SortDirection
}

// DefaultSortSpec is newest first.
func DefaultSortSpec() SortSpec {
	return SortSpec{Key: SortByDateCreated, Direction: Descending}
}

// Reversed returns the spec with the opposite direction.
func (s SortSpec) Reversed() SortSpec {
	if s.Direction == Ascending {
		s.Direction = Descending
	} else {
		s.Direction = Ascending
	}
	return s
}

// NextKey cycles between the supported sort keys.
func (s SortSpec) NextKey() SortSpec {
	if s.Key == SortByDateCreated {
		s.Key = SortByStatus
	} else {
		s.Key = SortByDateCreated
	}
	return s
}

func (d SortDirection) String() string {
	if d == Ascending {
		return "asc"
	}
	return "desc"
}

// ParseSortKey accepts "date_created", "created", "date" or "status".
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "date_created", "created", "date", "createdat":
		return SortByDateCreated, nil
	case "status":
		return SortByStatus, nil
	}
	return "", fmt.Errorf("unknown sort key %q: must be date_created or status", s)
}

// ParseSortDirection accepts "asc"/"ascending" and "desc"/"descending".
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return 0, fmt.Errorf("unknown sort direction %q: must be asc or desc", s)
}
