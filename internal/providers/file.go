package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cho-y-j/able-sub001/pkg/types"
)

// FileAnalysisProvider reads the market regime from a JSON file, standing in
// for the external analysis service. The file is re-read on every call so an
// operator can update it while a session runs.
type FileAnalysisProvider struct {
	Path string
}

type regimeFile struct {
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
}

func (p *FileAnalysisProvider) Analyze(_ context.Context, _ []string) (*types.MarketRegime, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read regime file %s: %w", p.Path, err)
	}

	var parsed regimeFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse regime file %s: %w", p.Path, err)
	}

	classification := types.RegimeClassification(parsed.Classification)
	switch classification {
	case types.RegimeBull, types.RegimeBear, types.RegimeSideways,
		types.RegimeVolatile, types.RegimeCrisis, types.RegimeUnknown:
	default:
		return nil, fmt.Errorf("unrecognized regime %q in %s", parsed.Classification, p.Path)
	}

	return &types.MarketRegime{
		Classification: classification,
		Confidence:     parsed.Confidence,
		AnalyzedAt:     time.Now(),
	}, nil
}

// FileCandidateSource reads strategy candidates from a JSON file: a plain
// array of StrategyCandidate objects.
type FileCandidateSource struct {
	Path string
}

func (s *FileCandidateSource) Candidates(_ context.Context, _ string, _ []string) ([]types.StrategyCandidate, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidates file %s: %w", s.Path, err)
	}

	var candidates []types.StrategyCandidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, fmt.Errorf("failed to parse candidates file %s: %w", s.Path, err)
	}

	for i, c := range candidates {
		if c.StockCode == "" {
			return nil, fmt.Errorf("candidate %d in %s has no stock code", i, s.Path)
		}
	}
	return candidates, nil
}
