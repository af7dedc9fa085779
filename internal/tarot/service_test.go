package tarot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/internal/ai"
)

type stubChatter struct {
	reply string
	err   error
}

func (s *stubChatter) Chat(_ context.Context, _ []ai.Message) (string, error) {
	return s.reply, s.err
}

func TestExtractJSON(t *testing.T) {
	parsed := extractJSON("```json\n{\"reading\": {\"tinh-yeu\": \"ok\"}}\n```")
	require.NotNil(t, parsed)
	assert.Contains(t, parsed, "reading")

	assert.Nil(t, extractJSON("no json here"))
	assert.Nil(t, extractJSON("{broken"))
}

func TestReadingOfUnwrapsOrPassesThrough(t *testing.T) {
	wrapped := map[string]interface{}{"reading": map[string]interface{}{"a": "b"}}
	assert.Equal(t, wrapped["reading"], readingOf(wrapped, "reading"))

	bare := map[string]interface{}{"a": "b"}
	assert.Equal(t, bare, readingOf(bare, "reading"))

	assert.Nil(t, readingOf(nil, "reading"))
}

func TestDailyReadingUsesModelOutput(t *testing.T) {
	svc := NewService(&stubChatter{
		reply: `{"reading": {"tinh-yeu": "x", "tam-trang": "y", "tien-bac": "z"}}`,
	}, zap.NewNop())

	out := svc.DailyReading(context.Background(), "An", "2000-01-01", "The Sun", "The Moon", "The Star")
	reading, ok := out["reading"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "x", reading["tinh-yeu"])
}

func TestDailyReadingFallsBackOnModelError(t *testing.T) {
	svc := NewService(&stubChatter{err: errors.New("upstream down")}, zap.NewNop())

	out := svc.DailyReading(context.Background(), "An", "2000-01-01", "The Sun", "The Moon", "The Star")
	reading, ok := out["reading"].(map[string]string)
	require.True(t, ok)
	assert.Contains(t, reading["tinh-yeu"], "The Sun")
	assert.Contains(t, reading["tam-trang"], "The Moon")
}

func TestYesNoFallback(t *testing.T) {
	assert.Equal(t, "yes", yesNoFallback("The Sun"))
	assert.Equal(t, "yes", yesNoFallback("the wheel of fortune"))
	assert.Equal(t, "no", yesNoFallback("The Tower"))
}

func TestYesNoReadingFallbackNeverNamesHiddenCard(t *testing.T) {
	svc := NewService(&stubChatter{reply: "garbage"}, zap.NewNop())

	out := svc.YesNoReading(context.Background(), "Will it work?", "The Tower", "Death", "card1")
	answer, ok := out["answer"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "no", answer["yesNo"])
	assert.NotContains(t, answer["deeperInsight"], "Death")
}
