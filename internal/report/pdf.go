// Package report renders board snapshots as printable documents.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

// Options controls the rendered report.
type Options struct {
	// Title is printed at the top of the first page.
	Title string
	// Config supplies column display titles; nil uses the built-in titles.
	Config *models.BoardConfig
	// Generated is printed under the title. Zero omits the line.
	Generated time.Time
}

// WritePDF writes an A4 report of snap to w: a summary line followed by one
// section per column listing its tasks in board order.
func WritePDF(w io.Writer, snap models.BoardSnapshot, opts Options) error {
	if opts.Title == "" {
		opts.Title = "Task Board"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(opts.Title, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(opts.Title))
	pdf.Ln(10)

	stats := snap.Stats()
	pdf.SetFont("Arial", "", 10)
	if !opts.Generated.IsZero() {
		pdf.Cell(0, 6, "Generated "+opts.Generated.Format("2006-01-02 15:04"))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Active: %d   Completed: %s", stats.Active, stats.Completed()))
	pdf.Ln(10)

	for _, col := range models.Columns {
		tasks := snap.Tasks(col)

		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("%s (%d)", opts.Config.ColumnTitle(col), len(tasks))), "B", 1, "L", true, 0, "")
		pdf.Ln(2)

		if len(tasks) == 0 {
			pdf.SetFont("Arial", "I", 10)
			pdf.Cell(0, 6, "No tasks")
			pdf.Ln(8)
			continue
		}

		for _, task := range tasks {
			pdf.SetFont("Arial", "B", 10)
			pdf.MultiCell(0, 6, tr(task.Title), "0", "L", false)
			pdf.SetFont("Arial", "", 9)
			meta := fmt.Sprintf("Priority: %s", task.Priority)
			if task.Deadline != "" {
				meta += "   Deadline: " + task.Deadline
			}
			pdf.MultiCell(0, 5, tr(meta), "0", "L", false)
			if task.Description != "" {
				pdf.MultiCell(0, 5, tr(task.Description), "0", "L", false)
			}
			pdf.Ln(3)
		}
		pdf.Ln(4)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return nil
}
