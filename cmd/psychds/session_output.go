package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/psych-ds/psychds-r-sub001/internal/api"
)

func buildSessionRows(sessions []api.SessionSummary) [][]string {
	rows := make([][]string, 0, len(sessions))
	for _, sess := range sessions {
		rows = append(rows, []string{
			sess.ID,
			sess.Name,
			strconv.Itoa(sess.Step),
			sess.Status,
			strconv.Itoa(sess.FileCount),
			relativeTime(sess.UpdatedAt),
		})
	}
	return rows
}

func sessionDetailLines(s api.SessionSummary) []string {
	lines := []string{
		fmt.Sprintf("ID:         %s", s.ID),
		fmt.Sprintf("Name:       %s", s.Name),
		fmt.Sprintf("Status:     %s", s.Status),
		fmt.Sprintf("Step:       %d (max visited %d)", s.Step, s.MaxVisitedStep),
	}
	if s.Directory != "" {
		lines = append(lines, fmt.Sprintf("Directory:  %s", s.Directory))
	}
	lines = append(lines, fmt.Sprintf("Files:      %d", s.FileCount))
	if s.LastError != "" {
		lines = append(lines, fmt.Sprintf("Last error: %s", s.LastError))
	}
	if s.CreatedAt != "" {
		lines = append(lines, fmt.Sprintf("Created:    %s", relativeTime(s.CreatedAt)))
	}
	if s.UpdatedAt != "" {
		lines = append(lines, fmt.Sprintf("Updated:    %s", relativeTime(s.UpdatedAt)))
	}
	return lines
}

// relativeTime renders an API timestamp as a humanized age, falling back to
// the raw value when it does not parse.
func relativeTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return humanize.Time(parsed)
}
