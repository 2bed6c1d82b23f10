package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Deterministic, I/O-free text heuristics. The engine uses them as the
// fallback when the language-understanding service fails transiently;
// the heuristic adapter exposes them as a full offline collaborator.

var (
	emailSearchRe  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	mobileSearchRe = regexp.MustCompile(`\+?\d[\d\s\-]{7,}\d`)
	ageSearchRe    = regexp.MustCompile(`(?i)(?:my\s+)?age\s*(?:is|:|=)?\s*(\d{1,3})\b`)
	nameSearchRe   = regexp.MustCompile(`(?i)(?:my\s+)?name\s*(?:is|:|=)\s*([A-Za-z][A-Za-z .'\-]{1,30})`)
	citySearchRe   = regexp.MustCompile(`(?i)(?:my\s+)?city\s*(?:is|:|=)\s*([A-Za-z][A-Za-z .\-]{1,20})`)
	bareNumberRe   = regexp.MustCompile(`\b(\d{1,3})\b`)

	editRe = regexp.MustCompile(`(?i)(?:change|update|set|edit)\s+(?:my\s+)?(\w+)\s+to\s+(.+)`)
)

var confirmWords = map[string]bool{
	"yes": true, "y": true, "confirm": true, "correct": true, "ok": true, "okay": true,
}

// HeuristicExtract pulls a candidate value for a field out of free text
// using field-specific patterns. When no pattern matches, the trimmed
// text itself is the candidate: the caller asked for exactly this field,
// so a bare answer is the common case.
func HeuristicExtract(field Field, text string) string {
	t := strings.TrimSpace(text)
	switch field.Name {
	case "email":
		if m := emailSearchRe.FindString(t); m != "" {
			return m
		}
	case "mobile":
		if m := mobileSearchRe.FindString(t); m != "" {
			return m
		}
	case "age":
		if m := ageSearchRe.FindStringSubmatch(t); m != nil {
			return m[1]
		}
		if m := bareNumberRe.FindStringSubmatch(t); m != nil {
			return m[1]
		}
	case "name":
		if m := nameSearchRe.FindStringSubmatch(t); m != nil {
			return strings.TrimSpace(m[1])
		}
	case "city":
		if m := citySearchRe.FindStringSubmatch(t); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return t
}

// EditRequest is a parsed "change <field> to <value>" instruction.
type EditRequest struct {
	Field string
	Value string
}

// HeuristicClassify interprets a confirmation reply without any
// external call. It recognizes plain affirmations and "change X to Y"
// edits; everything else is a rejection the caller should re-prompt on.
func HeuristicClassify(text string) (confirmed bool, edit *EditRequest) {
	t := strings.ToLower(strings.TrimSpace(text))
	if confirmWords[t] {
		return true, nil
	}
	if m := editRe.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		return false, &EditRequest{
			Field: strings.ToLower(m[1]),
			Value: strings.TrimSpace(m[2]),
		}
	}
	return false, nil
}

// TemplateSummary composes the derived text directly from profile
// fields. No I/O: this is the generation fallback and must always
// succeed on a complete profile.
func TemplateSummary(profile map[string]string) string {
	fields := make([]string, 0, len(profile))
	for f := range profile {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	lines := []string{"Lead Profile Summary", ""}
	for _, f := range fields {
		v := profile[f]
		if v == SkippedValue {
			v = "(not provided)"
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", titleCase(f), v))
	}
	lines = append(lines,
		"",
		"Status: profile collected and validated",
		fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.DateTime)),
	)
	return strings.Join(lines, "\n")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
