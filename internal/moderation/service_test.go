package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubClassifier struct {
	out   string
	err   error
	calls int
}

func (s *stubClassifier) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.out, s.err
}

func TestParseVerdictCleanJSON(t *testing.T) {
	v := parseVerdict(`{"label": "TOXIC", "confidence": 0.93, "reason": "insults"}`)
	assert.Equal(t, LabelToxic, v.Label)
	assert.InDelta(t, 0.93, v.Confidence, 0.001)
}

func TestParseVerdictFencedJSON(t *testing.T) {
	raw := "Sure, here is the classification:\n```json\n{\"label\": \"SAFE\", \"confidence\": 0.8}\n```"
	v := parseVerdict(raw)
	assert.Equal(t, LabelSafe, v.Label)
}

func TestParseVerdictKeywordFallback(t *testing.T) {
	v := parseVerdict("I would say this content is clearly TOXIC in tone.")
	assert.Equal(t, LabelToxic, v.Label)
	assert.Equal(t, "keyword fallback", v.Reason)
}

func TestParseVerdictGarbage(t *testing.T) {
	v := parseVerdict("no idea what you want")
	assert.Equal(t, LabelNeutral, v.Label)
}

func TestParseVerdictClampsConfidence(t *testing.T) {
	v := parseVerdict(`{"label": "SAFE", "confidence": 7.5}`)
	assert.Equal(t, 1.0, v.Confidence)
}

func TestScanFailsOpen(t *testing.T) {
	svc := NewService(&stubClassifier{err: errors.New("timeout")}, zap.NewNop())
	v := svc.Scan(context.Background(), "hello")
	assert.Equal(t, LabelNeutral, v.Label)
}

func TestScanCachesVerdicts(t *testing.T) {
	cl := &stubClassifier{out: `{"label": "SAFE", "confidence": 0.9}`}
	svc := NewService(cl, zap.NewNop())

	first := svc.Scan(context.Background(), "same content")
	second := svc.Scan(context.Background(), "same content")

	assert.Equal(t, 1, cl.calls)
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, LabelSafe, second.Label)
}

func TestScanErrorsAreNotCached(t *testing.T) {
	cl := &stubClassifier{err: errors.New("down")}
	svc := NewService(cl, zap.NewNop())

	svc.Scan(context.Background(), "content")
	svc.Scan(context.Background(), "content")

	// both calls hit the model; failures must not poison the cache
	assert.Equal(t, 2, cl.calls)
	assert.Equal(t, 0, svc.CacheStats()["entries"])
}

func TestCacheClear(t *testing.T) {
	cl := &stubClassifier{out: `{"label": "SAFE", "confidence": 0.9}`}
	svc := NewService(cl, zap.NewNop())

	svc.Scan(context.Background(), "a")
	assert.Equal(t, 1, svc.CacheStats()["entries"])
	svc.CacheClear()
	assert.Equal(t, 0, svc.CacheStats()["entries"])
}
