package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/roomduty/roomduty-api-go/pkg/models"
)

// CSVHeader returns the header row: date, day, one column per task, note
func CSVHeader(tasks []string) []string {
	header := make([]string, 0, len(tasks)+3)
	header = append(header, "date", "day")
	header = append(header, tasks...)
	return append(header, "note")
}

// WriteCSV writes one row per calendar day. Weekend rows leave the task columns empty.
func WriteCSV(w io.Writer, result *models.ScheduleResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader(result.Tasks)); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, day := range result.Days {
		if err := writer.Write(row(day, result.Tasks)); err != nil {
			return fmt.Errorf("writing csv row %s: %w", day.Date, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// CSV renders the schedule to a string
func CSV(result *models.ScheduleResult) (string, error) {
	var out strings.Builder
	if err := WriteCSV(&out, result); err != nil {
		return "", err
	}
	return out.String(), nil
}

// WriteTable writes an aligned plain-text table, marking weekends with "-"
func WriteTable(w io.Writer, result *models.ScheduleResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(CSVHeader(result.Tasks), "\t"))
	for _, day := range result.Days {
		cells := row(day, result.Tasks)
		for i := 2; i < len(cells)-1; i++ {
			if cells[i] == "" {
				cells[i] = "-"
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func row(day models.DayAssignment, tasks []string) []string {
	cells := make([]string, 0, len(tasks)+3)
	cells = append(cells, day.Date, day.DayName)
	for _, task := range tasks {
		cells = append(cells, day.Assignments[task])
	}
	note := ""
	if day.Note != nil {
		note = *day.Note
	}
	return append(cells, note)
}
