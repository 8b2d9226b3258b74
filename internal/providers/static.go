package providers

import (
	"context"
	"time"

	"github.com/cho-y-j/able-sub001/pkg/types"
)

// StaticAnalysisProvider always reports the same regime. Useful for dry runs
// and as the fallback when no regime file is configured.
type StaticAnalysisProvider struct {
	Classification types.RegimeClassification
	Confidence     float64
}

func (p *StaticAnalysisProvider) Analyze(context.Context, []string) (*types.MarketRegime, error) {
	classification := p.Classification
	if classification == "" {
		classification = types.RegimeUnknown
	}
	return &types.MarketRegime{
		Classification: classification,
		Confidence:     p.Confidence,
		AnalyzedAt:     time.Now(),
	}, nil
}

// StaticCandidateSource hands out a fixed candidate list.
type StaticCandidateSource struct {
	List []types.StrategyCandidate
}

func (s *StaticCandidateSource) Candidates(context.Context, string, []string) ([]types.StrategyCandidate, error) {
	out := make([]types.StrategyCandidate, len(s.List))
	copy(out, s.List)
	return out, nil
}
