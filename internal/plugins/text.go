package plugins

import (
	"context"
	"sort"
	"strings"

	"github.com/KaramelBytes/datasight/internal/dataset"
	"github.com/KaramelBytes/datasight/internal/pipeline"
)

// TokenCount pairs a token with its frequency.
type TokenCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// TextStats profiles one free-text column.
type TextStats struct {
	Name      string       `json:"name"`
	AvgLength float64      `json:"avg_length"`
	MaxLength int          `json:"max_length"`
	Tokens    int          `json:"tokens"`
	TopTokens []TokenCount `json:"top_tokens"`
}

// TextPayload profiles the free-text columns of the frame.
type TextPayload struct {
	Columns []TextStats `json:"columns"`
}

// TextPlugin computes token and length statistics for text columns.
type TextPlugin struct{ stage }

func (p *TextPlugin) Run(_ context.Context, _ *pipeline.View, frame *dataset.Frame) (any, error) {
	var out TextPayload
	for i := range frame.Columns {
		c := &frame.Columns[i]
		if c.Kind != dataset.KindText {
			continue
		}
		out.Columns = append(out.Columns, textStats(c))
	}
	if len(out.Columns) == 0 {
		return nil, pipeline.Skip("no text columns")
	}
	return out, nil
}

func textStats(c *dataset.Column) TextStats {
	s := TextStats{Name: c.Name}
	counts := make(map[string]int)
	var totalLen, nonEmpty int
	for _, raw := range c.Raw {
		if raw == "" {
			continue
		}
		nonEmpty++
		totalLen += len(raw)
		if len(raw) > s.MaxLength {
			s.MaxLength = len(raw)
		}
		for _, tok := range strings.Fields(strings.ToLower(raw)) {
			tok = strings.Trim(tok, ".,;:!?\"'()[]")
			if len(tok) < 3 {
				continue
			}
			s.Tokens++
			counts[tok]++
		}
	}
	if nonEmpty > 0 {
		s.AvgLength = float64(totalLen) / float64(nonEmpty)
	}
	tops := make([]TokenCount, 0, len(counts))
	for t, n := range counts {
		tops = append(tops, TokenCount{Token: t, Count: n})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Token < tops[j].Token
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > 10 {
		tops = tops[:10]
	}
	s.TopTokens = tops
	return s
}
