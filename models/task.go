package models

import (
	"strings"
	"time"
)

// Task is a single entry on the list. ID and CreatedAt are assigned by the
// store; Done is the only field that changes after creation.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"createdAt"`
}

// Stats summarizes a list of tasks for the page header, the TUI and exports.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// Summarize counts completed and pending tasks.
func Summarize(tasks []Task) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Done {
			s.Completed++
		} else {
			s.Pending++
		}
	}
	return s
}

// NormalizeTitle trims surrounding whitespace and rejects an empty result.
func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &ValidationError{Field: "title", Message: "Title is required"}
	}
	return title, nil
}

// ValidateID rejects a missing task id. Any non-empty id counts as present;
// whether it names a task is for the store to decide.
func ValidateID(id string) error {
	if id == "" {
		return &ValidationError{Field: "id", Message: "ID is required"}
	}
	return nil
}
