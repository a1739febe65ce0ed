package matchscore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AnalysisVersion is the single canonical payload shape. Older analysis shapes
// floating around upstream are rejected at this boundary instead of being
// branched on at every read site.
const AnalysisVersion = 1

var ErrAmbiguousShape = errors.New("ambiguous match-analysis payload shape")

type Analysis struct {
	Version   int      `json:"version"`
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths"`
	Gaps      []string `json:"gaps"`
}

// Map renders the analysis in the canonical persisted shape. Round-trips
// through Normalize.
func (a Analysis) Map() map[string]interface{} {
	m := map[string]interface{}{
		"version": float64(a.Version),
		"summary": a.Summary,
	}
	if len(a.Strengths) > 0 {
		m["strengths"] = toInterfaces(a.Strengths)
	}
	if len(a.Gaps) > 0 {
		m["gaps"] = toInterfaces(a.Gaps)
	}
	return m
}

func toInterfaces(items []string) []interface{} {
	out := make([]interface{}, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

type Result struct {
	Score    decimal.Decimal
	Analysis Analysis
}

// Scorer supplies match scores for applications. Scores are consumed
// read-only and never gate a workflow transition.
type Scorer interface {
	Score(ctx context.Context, coverLetter, projectDescription string, projectTags []string) (*Result, error)
}

// Normalize validates a raw analysis payload against the canonical shape.
func Normalize(raw map[string]interface{}) (*Analysis, error) {
	version, ok := raw["version"].(float64)
	if !ok || int(version) != AnalysisVersion {
		return nil, fmt.Errorf("%w: missing or unsupported version", ErrAmbiguousShape)
	}
	summary, ok := raw["summary"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: summary must be a string", ErrAmbiguousShape)
	}

	a := &Analysis{Version: AnalysisVersion, Summary: summary}
	var err error
	if a.Strengths, err = stringSlice(raw, "strengths"); err != nil {
		return nil, err
	}
	if a.Gaps, err = stringSlice(raw, "gaps"); err != nil {
		return nil, err
	}
	return a, nil
}

func stringSlice(raw map[string]interface{}, key string) ([]string, error) {
	value, ok := raw[key]
	if !ok || value == nil {
		return nil, nil
	}
	items, ok := value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a list", ErrAmbiguousShape, key)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must hold strings", ErrAmbiguousShape, key)
		}
		out = append(out, s)
	}
	return out, nil
}

// KeywordScorer is a heuristic scorer used when no external scoring service is
// configured: fraction of project tags mentioned in the cover letter.
type KeywordScorer struct{}

func NewKeywordScorer() *KeywordScorer {
	return &KeywordScorer{}
}

func (s *KeywordScorer) Score(ctx context.Context, coverLetter, projectDescription string, projectTags []string) (*Result, error) {
	matched := make([]string, 0, len(projectTags))
	letter := strings.ToLower(coverLetter)
	for _, tag := range projectTags {
		if tag != "" && strings.Contains(letter, strings.ToLower(tag)) {
			matched = append(matched, tag)
		}
	}

	score := decimal.NewFromInt(50)
	if len(projectTags) > 0 {
		score = decimal.NewFromInt(int64(len(matched) * 100 / len(projectTags)))
	}

	return &Result{
		Score: score,
		Analysis: Analysis{
			Version:   AnalysisVersion,
			Summary:   fmt.Sprintf("matched %d of %d project tags", len(matched), len(projectTags)),
			Strengths: matched,
		},
	}, nil
}
