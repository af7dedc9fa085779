package face

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// Generator is the LLM used for trait interpretation.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PersonalInfo accompanies the trait report when asking for a reading.
type PersonalInfo struct {
	Name     string `json:"name"`
	Birthday string `json:"birthday"`
	Gender   string `json:"gender"`
}

// fallbackInterpret is returned when the model call or parse fails.
var fallbackInterpret = map[string]interface{}{
	"tong-quan": "Dựa trên phân tích khuôn mặt và thông tin cá nhân, đây là một mệnh cục có nhiều tiềm năng phát triển.",
	"tam_dinh": map[string]string{
		"thuong_dinh": "Thượng đình cân đối, thể hiện trí tuệ và tuổi trẻ thuận lợi.",
		"trung_dinh":  "Trung đình hài hòa, trung vận ổn định.",
		"ha_dinh":     "Hạ đình đầy đặn, hậu vận vững vàng.",
		"tong_quan":   "Tam đình cân xứng là tướng mạo cát lợi.",
	},
	"ngu_quan": map[string]string{
		"long_may":  "Lông mày thanh tú, tình cảm và lý trí cân bằng.",
		"mat":       "Ánh mắt sáng, tinh thần minh mẫn.",
		"mui":       "Mũi đầy đặn, tài vận khá.",
		"tai":       "Tai dày, phúc khí tốt.",
		"mieng_cam": "Miệng và cằm cân đối, hậu vận an ổn.",
	},
	"an_duong": map[string]string{
		"mo_ta":    "Ấn đường nằm giữa hai lông mày, thuộc trung đình.",
		"y_nghia":  "Phản ánh tinh thần, khí vận và sự thông suốt.",
		"danh_gia": "Sáng và rộng là dấu hiệu tốt.",
	},
	"loi_khuyen": []string{},
}

// Service turns landmark trait reports into physiognomy readings.
type Service struct {
	llm    Generator
	logger *zap.Logger
}

// NewService creates a face reading service.
func NewService(llm Generator, logger *zap.Logger) *Service {
	return &Service{llm: llm, logger: logger}
}

// Interpret asks the model to read the trait report. Falls back to canned
// text when the model is unavailable or answers with something unparseable.
func (s *Service) Interpret(ctx context.Context, report json.RawMessage, info PersonalInfo) map[string]interface{} {
	contextJSON, _ := json.Marshal(map[string]interface{}{
		"personalInfo": info,
		"report":       report,
	})

	prompt := `Bạn là chuyên gia Nhân tướng học. Viết luận giải dựa trên Ngũ Quan, Tam Đình, Ấn Đường.
Thông tin cá nhân:
- Tên: ` + orUnknown(info.Name) + `
- Ngày sinh: ` + orUnknown(info.Birthday) + `
- Giới tính: ` + orUnknown(info.Gender) + `

Dữ liệu phân tích khuôn mặt:
` + string(contextJSON) + `

YÊU CẦU:
- Trả về duy nhất một object JSON, Tiếng Việt, không kèm markdown.
- Cấu trúc: {"interpret": {"tong-quan": "...", "tam_dinh": {"thuong_dinh": "...", "trung_dinh": "...", "ha_dinh": "...", "tong_quan": "..."}, "ngu_quan": {"long_may": "...", "mat": "...", "mui": "...", "tai": "...", "mieng_cam": "..."}, "an_duong": {"mo_ta": "...", "y_nghia": "...", "danh_gia": "..."}, "loi_khuyen": []}}`

	raw, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("face interpretation call failed", zap.Error(err))
		return fallbackInterpret
	}

	parsed := extractInterpret(raw)
	if parsed == nil {
		s.logger.Warn("face interpretation returned unparseable output")
		return fallbackInterpret
	}
	if _, ok := parsed["tong-quan"]; !ok {
		parsed["tong-quan"] = fallbackInterpret["tong-quan"]
	}
	return parsed
}

func orUnknown(v string) string {
	if v == "" {
		return "Chưa cung cấp"
	}
	return v
}

// extractInterpret pulls the interpret object out of model output,
// tolerating fences and surrounding prose.
func extractInterpret(raw string) map[string]interface{} {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil
	}
	if inner, ok := parsed["interpret"].(map[string]interface{}); ok {
		return inner
	}
	return parsed
}
