// Package analyze derives secondary artifacts (summary, action items,
// speaker segmentation) from transcript text. Analysis is best-effort
// everywhere it is used: a failed pass degrades to transcription-only
// delivery, it never fails the surrounding call.
package analyze

import "context"

// Result is the outcome of an analysis pass over a transcript.
type Result struct {
	Summary     string
	ActionItems []string
}

// Analyzer produces a summary and action items from transcript text.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string) (*Result, error)
	Name() string
}

// Utterance is one speaker turn extracted from line-prefixed text.
type Utterance struct {
	Speaker string
	Text    string
}
