package pipeline

import (
	"context"
	"sort"
	"strings"

	"github.com/supportai/triage-pipeline/internal/capability"
	"github.com/supportai/triage-pipeline/internal/ticket"
	"github.com/supportai/triage-pipeline/internal/util"
)

const maxQueries = 5

// fallbackQueryTemplates are the rule-based phrases used when query generation
// is unavailable, keyed by problem type. Only the first three are used.
var fallbackQueryTemplates = map[ticket.ProblemType][]string{
	ticket.ProblemBilling:        {"billing issue", "payment problem", "invoice error", "charge dispute"},
	ticket.ProblemTechnical:      {"technical problem", "system error", "login issue", "feature not working"},
	ticket.ProblemAccount:        {"account access", "password reset", "profile update", "account settings"},
	ticket.ProblemFeatureRequest: {"new feature", "improvement request", "enhancement suggestion"},
	ticket.ProblemOther:          {"general inquiry", "help needed", "support request"},
}

var queryStopWords = map[string]struct{}{
	"that": {}, "this": {}, "with": {}, "from": {}, "have": {}, "been": {},
}

// runExpand generates diversified knowledge-base search queries. Model output
// is validated word-by-word; if nothing valid survives, the rule-based
// generator takes over.
func (p *Pipeline) runExpand(ctx context.Context, st *ticket.WorkflowState) {
	qc := capability.QueryContext{
		Message:     st.Ticket.Message,
		ProblemType: st.Intent.ProblemType,
		Category:    st.Triage.Category,
	}

	candidates, err := capability.Call(ctx, p.opts.Retry, func(ctx context.Context) ([]string, error) {
		return p.caps.Generator.GenerateQueries(ctx, qc)
	})
	if err != nil {
		p.logf(st.Ticket.TicketID, "query expansion failed, using rule-based queries: %s", util.RedactSecrets(err.Error()))
		st.RecordError("query expansion error: " + util.RedactSecrets(err.Error()))
		st.SearchQueries = FallbackQueries(st.Ticket.Message, st.Intent.ProblemType)
		return
	}

	var valid []string
	seen := make(map[string]struct{})
	for _, q := range candidates {
		q = strings.TrimSpace(q)
		words := len(strings.Fields(q))
		if words < 3 || words > 10 {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		valid = append(valid, q)
		if len(valid) == maxQueries {
			break
		}
	}

	if len(valid) == 0 {
		p.logf(st.Ticket.TicketID, "no valid generated queries, using rule-based queries")
		st.SearchQueries = FallbackQueries(st.Ticket.Message, st.Intent.ProblemType)
		return
	}
	st.SearchQueries = valid
	p.logf(st.Ticket.TicketID, "expanded %d search queries", len(valid))
}

// FallbackQueries builds deterministic rule-based queries: up to three
// template phrases for the problem type, then up to two "<term> issue" /
// "<term> problem" phrases built from the longest ticket words over three
// characters (stop words excluded), deduplicated and capped at five.
func FallbackQueries(message string, problemType ticket.ProblemType) []string {
	base, ok := fallbackQueryTemplates[problemType]
	if !ok {
		base = fallbackQueryTemplates[ticket.ProblemOther]
	}
	if len(base) > 3 {
		base = base[:3]
	}

	queries := make([]string, 0, maxQueries)
	seen := make(map[string]struct{})
	add := func(q string) {
		if len(queries) >= maxQueries {
			return
		}
		if _, dup := seen[q]; dup {
			return
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
	}
	for _, q := range base {
		add(q)
	}

	for i, term := range keyTerms(message, 2) {
		// Alternate suffixes so two terms yield two distinct phrasings.
		if i%2 == 0 {
			add(term + " issue")
		} else {
			add(term + " problem")
		}
	}
	return queries
}

// keyTerms returns up to n terms from the message, longest first, ties broken
// by order of appearance. Words of three characters or fewer and stop words
// are skipped.
func keyTerms(message string, n int) []string {
	type term struct {
		word  string
		order int
	}
	var terms []term
	seen := make(map[string]struct{})
	for i, raw := range strings.Fields(strings.ToLower(message)) {
		word := strings.Trim(raw, ".,!?;:\"'()[]")
		if len(word) <= 3 {
			continue
		}
		if _, stop := queryStopWords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		terms = append(terms, term{word: word, order: i})
	}
	sort.SliceStable(terms, func(i, j int) bool {
		if len(terms[i].word) != len(terms[j].word) {
			return len(terms[i].word) > len(terms[j].word)
		}
		return terms[i].order < terms[j].order
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, t.word)
	}
	return out
}
