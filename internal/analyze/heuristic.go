package analyze

import (
	"context"
	"regexp"
	"strings"
)

// speakerLine matches "Name: text" turns. Names are short word runs so
// timestamps and URLs with colons don't register as speakers.
var speakerLine = regexp.MustCompile(`^([A-Z][\w.'-]*(?: [A-Z][\w.'-]*){0,2}):\s+(.+)$`)

// actionMarkers flag a sentence as a likely action item.
var actionMarkers = []string{
	"action item",
	"i'll ",
	"i will ",
	"we need to",
	"we should",
	"let's schedule",
	"follow up",
	"follow-up",
	"todo",
	"by friday",
	"by monday",
	"by end of week",
	"next week",
}

// HeuristicAnalyzer derives a summary and action items with plain string
// heuristics. It is the zero-dependency default and the degradation
// target when the LLM pass fails.
type HeuristicAnalyzer struct{}

func (HeuristicAnalyzer) Name() string { return "heuristic" }

func (HeuristicAnalyzer) Analyze(_ context.Context, transcript string) (*Result, error) {
	utterances := Segment(transcript)

	var items []string
	for _, u := range utterances {
		if isActionItem(u.Text) {
			item := u.Text
			if u.Speaker != "" {
				item = u.Speaker + ": " + u.Text
			}
			items = append(items, item)
		}
	}

	return &Result{
		Summary:     summarize(utterances, transcript),
		ActionItems: items,
	}, nil
}

// Segment splits line-prefixed transcript text into speaker turns.
// Lines without a recognizable "Name:" prefix are folded into the
// previous turn, or attributed to an empty speaker when leading.
func Segment(transcript string) []Utterance {
	var result []Utterance
	for _, line := range strings.Split(transcript, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := speakerLine.FindStringSubmatch(line); m != nil {
			result = append(result, Utterance{Speaker: m[1], Text: m[2]})
			continue
		}
		if len(result) > 0 {
			result[len(result)-1].Text += " " + line
		} else {
			result = append(result, Utterance{Text: line})
		}
	}
	return result
}

// Speakers returns the distinct speaker names in order of first turn.
func Speakers(transcript string) []string {
	seen := map[string]bool{}
	var names []string
	for _, u := range Segment(transcript) {
		if u.Speaker != "" && !seen[u.Speaker] {
			seen[u.Speaker] = true
			names = append(names, u.Speaker)
		}
	}
	return names
}

func isActionItem(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range actionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// summarize produces a one-paragraph summary: participants plus the
// opening statement, which in meeting transcripts usually states the goal.
func summarize(utterances []Utterance, transcript string) string {
	if len(utterances) == 0 {
		return ""
	}

	names := Speakers(transcript)
	var b strings.Builder
	switch {
	case len(names) > 1:
		b.WriteString("Meeting between ")
		b.WriteString(strings.Join(names[:len(names)-1], ", "))
		b.WriteString(" and ")
		b.WriteString(names[len(names)-1])
		b.WriteString(". ")
	case len(names) == 1:
		b.WriteString("Notes from ")
		b.WriteString(names[0])
		b.WriteString(". ")
	}

	opening := utterances[0].Text
	if len(opening) > 200 {
		opening = opening[:200] + "…"
	}
	b.WriteString(opening)
	return b.String()
}
