// Package view renders activities as plain text for the terminal.
package view

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/saadjs/fittrack-cli/internal/model"
)

// Section is one paragraph of a recommendation. Label is empty for
// paragraphs without a colon.
type Section struct {
	Label string
	Body  string
}

// ParseRecommendation splits text on blank lines. A paragraph containing a
// colon is split at the first one into a label and a trimmed body.
func ParseRecommendation(text string) []Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	paragraphs := strings.Split(text, "\n\n")
	out := make([]Section, 0, len(paragraphs))
	for _, p := range paragraphs {
		label, body, ok := strings.Cut(p, ":")
		if !ok {
			out = append(out, Section{Body: p})
			continue
		}
		out = append(out, Section{Label: label, Body: strings.TrimSpace(body)})
	}
	return out
}

// TypeLabel turns RUNNING into Running and WEIGHT_TRAINING into
// Weight training. Types outside the known set keep their label and are
// marked as unknown.
func TypeLabel(t model.ActivityType) string {
	s := strings.TrimSpace(string(t))
	if s == "" {
		return "Unknown Activity"
	}
	s = strings.ReplaceAll(s, "_", " ")
	first, size := utf8.DecodeRuneInString(s)
	label := string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
	if !model.ParseActivityType(string(t)).Known() {
		label += " (unknown type)"
	}
	return label
}

func FormatDate(ts model.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format("2006-01-02")
}

func ActivityTable(w io.Writer, activities []model.Activity) {
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tDURATION_MIN\tKCAL_BURNED")
	for _, a := range activities {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ID, FormatDate(a.CreatedAt), TypeLabel(a.Type), a.Duration, a.CaloriesBurned)
	}
	fmt.Fprintf(w, "%d activities\n", len(activities))
}

func ActivityDetail(w io.Writer, a model.Activity) {
	fmt.Fprintf(w, "%s (%s)\n", TypeLabel(a.Type), a.ID)
	if date := FormatDate(a.CreatedAt); date != "" {
		fmt.Fprintf(w, "Date: %s\n", date)
	}
	if a.Duration > 0 {
		fmt.Fprintf(w, "Duration: %s min\n", a.Duration)
	}
	if a.CaloriesBurned > 0 {
		fmt.Fprintf(w, "Calories burned: %s\n", a.CaloriesBurned)
	}

	if sections := ParseRecommendation(a.Recommendation); len(sections) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Analysis & Recommendations")
		for _, s := range sections {
			if s.Label != "" {
				fmt.Fprintf(w, "  %s:\n", s.Label)
				fmt.Fprintf(w, "    %s\n", s.Body)
				continue
			}
			fmt.Fprintf(w, "  %s\n", s.Body)
		}
	}
	writeList(w, "Areas for Improvement", a.Improvements)
	writeList(w, "Workout Suggestions", a.Suggestions)
	writeList(w, "Safety Guidelines", a.Safety)
}

func writeList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}
