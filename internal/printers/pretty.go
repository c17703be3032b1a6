package printers

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
)

// PrettyPrint renders annotation and notification projections for terminal
// consumers.
type PrettyPrint struct {
	ShowID bool
}

// AnnotationRow is one rendered annotation line.
type AnnotationRow struct {
	ID          string
	Author      string
	DisplayTime string
	Note        string
	Snippet     string
	ReplyCount  int
	Highlighted bool
}

// SummaryRow is one rendered compact summary line.
type SummaryRow struct {
	ID    string
	Title string
	Meta  string
}

// NotificationRow is one rendered inbox line.
type NotificationRow struct {
	Title       string
	Body        string
	DisplayTime string
	Read        bool
}

// TitleWithCount prints a bold underlined section title with an entry count.
func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Print(title)
	_, _ = c.Printf(" - %d", count)
	switch count {
	case 1:
		_, _ = c.Println(" entry")
	default:
		_, _ = c.Println(" entries")
	}
}

// Empty prints a faint empty-state affordance.
func (pp *PrettyPrint) Empty(message string) {
	f := color.New(color.Faint, color.Italic)
	_, _ = f.Printf(" %s\n\n", message)
}

// Annotations prints the full annotation list as a table.
func (pp *PrettyPrint) Annotations(rows ...AnnotationRow) {
	table := uitable.New()
	table.MaxColWidth = 48
	table.Wrap = true

	if pp.ShowID {
		table.AddRow("ID", "AUTHOR", "TIME", "NOTE", "SNIPPET", "REPLIES", "MARK")
	} else {
		table.AddRow("AUTHOR", "TIME", "NOTE", "SNIPPET", "REPLIES", "MARK")
	}
	for _, row := range rows {
		mark := "—"
		if row.Highlighted {
			mark = "✓"
		}
		if pp.ShowID {
			table.AddRow(row.ID, row.Author, row.DisplayTime, row.Note, row.Snippet, row.ReplyCount, mark)
		} else {
			table.AddRow(row.Author, row.DisplayTime, row.Note, row.Snippet, row.ReplyCount, mark)
		}
	}
	fmt.Println(table)
	fmt.Println("")
}

// Summaries prints the compact summary list.
func (pp *PrettyPrint) Summaries(rows ...SummaryRow) {
	t := color.New()
	m := color.New(color.Faint)
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)

	for _, row := range rows {
		if pp.ShowID {
			_, _ = y.Printf("%s  ", row.ID)
		}
		_, _ = t.Println(row.Title)
		_, _ = m.Printf("  %s\n", row.Meta)
	}
	fmt.Println("")
}

// Notifications prints the inbox, unread entries highlighted.
func (pp *PrettyPrint) Notifications(rows ...NotificationRow) {
	unread := color.New(color.Bold)
	read := color.New(color.Faint)
	meta := color.New(color.Faint, color.Italic)

	for _, row := range rows {
		style := read
		badge := " "
		if !row.Read {
			style = unread
			badge = "●"
		}
		_, _ = style.Printf("%s %s — %s\n", badge, row.Title, row.Body)
		_, _ = meta.Printf("   %s\n", row.DisplayTime)
	}
	fmt.Println("")
}
