package face

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	reply string
	err   error
}

func (s *stubGenerator) Generate(_ context.Context, _ string) (string, error) {
	return s.reply, s.err
}

var sampleReport = json.RawMessage(`{"mat": [{"trait": "Mắt sáng"}]}`)

func TestInterpretParsesModelOutput(t *testing.T) {
	svc := NewService(&stubGenerator{
		reply: "```json\n{\"interpret\": {\"tong-quan\": \"tốt\", \"loi_khuyen\": []}}\n```",
	}, zap.NewNop())

	out := svc.Interpret(context.Background(), sampleReport, PersonalInfo{Name: "An"})
	assert.Equal(t, "tốt", out["tong-quan"])
}

func TestInterpretAddsMissingOverview(t *testing.T) {
	svc := NewService(&stubGenerator{
		reply: `{"interpret": {"loi_khuyen": []}}`,
	}, zap.NewNop())

	out := svc.Interpret(context.Background(), sampleReport, PersonalInfo{})
	require.Contains(t, out, "tong-quan")
	assert.NotEmpty(t, out["tong-quan"])
}

func TestInterpretFallsBackOnError(t *testing.T) {
	svc := NewService(&stubGenerator{err: errors.New("quota exceeded")}, zap.NewNop())

	out := svc.Interpret(context.Background(), sampleReport, PersonalInfo{})
	assert.Equal(t, fallbackInterpret["tong-quan"], out["tong-quan"])
	assert.Contains(t, out, "ngu_quan")
}

func TestInterpretFallsBackOnGarbage(t *testing.T) {
	svc := NewService(&stubGenerator{reply: "sorry, I cannot help"}, zap.NewNop())

	out := svc.Interpret(context.Background(), sampleReport, PersonalInfo{})
	assert.Equal(t, fallbackInterpret, out)
}
