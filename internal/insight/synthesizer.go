package insight

import (
	"sort"

	"github.com/KaramelBytes/datasight/internal/pipeline"
)

// Options tunes rule gates. Zero values are replaced by defaults so callers
// can override a single knob.
type Options struct {
	CorrelationCutoff float64
}

// DefaultOptions mirrors the built-in gates.
func DefaultOptions() Options {
	return Options{CorrelationCutoff: 0.4}
}

// Synthesizer walks the fixed rule registry against a completed analysis
// context. Rules over failed or skipped stages simply contribute nothing;
// synthesis itself cannot fail.
type Synthesizer struct {
	opts  Options
	rules []rule
}

func NewSynthesizer(opts Options) *Synthesizer {
	if opts.CorrelationCutoff <= 0 || opts.CorrelationCutoff >= 1 {
		opts.CorrelationCutoff = DefaultOptions().CorrelationCutoff
	}
	return &Synthesizer{opts: opts, rules: defaultRules()}
}

// Synthesize produces all findings, ordered by descending significance with
// ties broken by rule registration order and then insight ID. Output is
// deterministic for a given context.
func (s *Synthesizer) Synthesize(ac *pipeline.AnalysisContext) []Insight {
	var out []Insight
	ruleRank := map[string]int{}
	for i, r := range s.rules {
		found := r.apply(ac, s.opts)
		for _, ins := range found {
			ruleRank[ins.ID] = i
		}
		out = append(out, found...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Significance != out[j].Significance {
			return out[i].Significance > out[j].Significance
		}
		if ruleRank[out[i].ID] != ruleRank[out[j].ID] {
			return ruleRank[out[i].ID] < ruleRank[out[j].ID]
		}
		return out[i].ID < out[j].ID
	})
	return out
}
