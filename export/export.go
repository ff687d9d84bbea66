// Package export renders the task list as JSON, CSV or PDF.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"tasklist/models"
)

// ErrUnknownFormat is returned for a format other than json, csv or pdf.
var ErrUnknownFormat = errors.New("unknown export format")

// Document is a rendered export.
type Document struct {
	Body        []byte
	ContentType string
	Filename    string
}

// Render produces the tasks in the requested format.
func Render(tasks []models.Task, format string) (*Document, error) {
	switch strings.ToLower(format) {
	case "", "json":
		b, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding json: %w", err)
		}
		return &Document{Body: b, ContentType: "application/json", Filename: "tasks.json"}, nil
	case "csv":
		b, err := renderCSV(tasks)
		if err != nil {
			return nil, err
		}
		return &Document{Body: b, ContentType: "text/csv", Filename: "tasks.csv"}, nil
	case "pdf":
		b, err := renderPDF(tasks)
		if err != nil {
			return nil, err
		}
		return &Document{Body: b, ContentType: "application/pdf", Filename: "tasks.pdf"}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
}

func renderCSV(tasks []models.Task) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "title", "done", "createdAt"})
	for _, t := range tasks {
		_ = w.Write([]string{t.ID, t.Title, strconv.FormatBool(t.Done), t.CreatedAt.UTC().Format(time.RFC3339)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("writing csv: %w", err)
	}
	return buf.Bytes(), nil
}

func renderPDF(tasks []models.Task) ([]byte, error) {
	stats := models.Summarize(tasks)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Tasks")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total %d   Completed %d   Pending %d", stats.Total, stats.Completed, stats.Pending))
	pdf.Ln(10)

	for _, t := range tasks {
		box := "[ ]"
		if t.Done {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s  (%s)", box, t.Title, t.CreatedAt.UTC().Format("2006-01-02 15:04"))
		pdf.MultiCell(0, 6, tr(line), "0", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}
