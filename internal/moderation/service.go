package moderation

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/pkg/utils"
)

// Label classifies scanned content.
type Label string

const (
	LabelSafe    Label = "SAFE"
	LabelNeutral Label = "NEUTRAL"
	LabelToxic   Label = "TOXIC"
)

const (
	cacheSize = 1000
	cacheTTL  = time.Hour
)

// Verdict is the outcome of an AI moderation scan.
type Verdict struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
	Cached     bool    `json:"cached"`
}

// Classifier produces text from a prompt; backed by Gemini in production.
type Classifier interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service classifies content via the AI model with an expirable LRU cache in
// front. The model is an advisor, not a gate: when it is unreachable or
// returns garbage the verdict is NEUTRAL and content stays up.
type Service struct {
	ai     Classifier
	cache  *expirable.LRU[string, Verdict]
	logger *zap.Logger
}

// NewService creates a moderation service.
func NewService(ai Classifier, logger *zap.Logger) *Service {
	return &Service{
		ai:     ai,
		cache:  expirable.NewLRU[string, Verdict](cacheSize, nil, cacheTTL),
		logger: logger,
	}
}

const promptTemplate = `You are a content moderator for a Vietnamese social platform.
Classify the following user content as SAFE, NEUTRAL or TOXIC.
Respond with JSON only: {"label": "...", "confidence": 0.0, "reason": "..."}

Content:
`

// Scan classifies content, serving repeats from cache.
func (s *Service) Scan(ctx context.Context, content string) Verdict {
	key := utils.ContentHash(content)
	if v, ok := s.cache.Get(key); ok {
		v.Cached = true
		return v
	}

	raw, err := s.ai.Generate(ctx, promptTemplate+content)
	if err != nil {
		s.logger.Warn("moderation scan unavailable", zap.Error(err))
		return Verdict{Label: LabelNeutral, Reason: "scan unavailable"}
	}

	v := parseVerdict(raw)
	s.cache.Add(key, v)
	return v
}

// parseVerdict extracts the verdict from the model output. Models wrap JSON
// in prose and code fences, so it hunts for the first JSON object; if none
// parses, it falls back to keyword matching, and failing that, NEUTRAL.
func parseVerdict(raw string) Verdict {
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			var v Verdict
			if err := json.Unmarshal([]byte(raw[start:end+1]), &v); err == nil {
				switch v.Label {
				case LabelSafe, LabelNeutral, LabelToxic:
					if v.Confidence < 0 {
						v.Confidence = 0
					}
					if v.Confidence > 1 {
						v.Confidence = 1
					}
					return v
				}
			}
		}
	}

	upper := strings.ToUpper(raw)
	switch {
	case strings.Contains(upper, string(LabelToxic)):
		return Verdict{Label: LabelToxic, Confidence: 0.5, Reason: "keyword fallback"}
	case strings.Contains(upper, string(LabelSafe)):
		return Verdict{Label: LabelSafe, Confidence: 0.5, Reason: "keyword fallback"}
	default:
		return Verdict{Label: LabelNeutral, Reason: "unparseable model output"}
	}
}

// CacheStats reports cache occupancy.
func (s *Service) CacheStats() map[string]int {
	return map[string]int{
		"entries":  s.cache.Len(),
		"capacity": cacheSize,
	}
}

// CacheClear empties the verdict cache.
func (s *Service) CacheClear() {
	s.cache.Purge()
}
