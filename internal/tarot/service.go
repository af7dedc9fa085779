package tarot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/internal/ai"
)

// Chatter is the LLM interface the readings run on.
type Chatter interface {
	Chat(ctx context.Context, messages []ai.Message) (string, error)
}

// Service builds tarot prompts and interprets the model's answers. Cards are
// drawn client side; the server only reads them.
type Service struct {
	llm    Chatter
	logger *zap.Logger
}

// NewService creates a tarot service.
func NewService(llm Chatter, logger *zap.Logger) *Service {
	return &Service{llm: llm, logger: logger}
}

const systemPrompt = "Bạn là chuyên gia bói bài Tarot chuyên nghiệp. " +
	"Luôn trả về duy nhất một object JSON hợp lệ, nội dung Tiếng Việt, không kèm văn bản nào khác."

// ask sends the prompt and parses the JSON object in the reply. On any model
// or parse failure it returns nil so callers can fall back to canned text.
func (s *Service) ask(ctx context.Context, prompt string) map[string]interface{} {
	raw, err := s.llm.Chat(ctx, []ai.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		s.logger.Warn("tarot model call failed", zap.Error(err))
		return nil
	}
	parsed := extractJSON(raw)
	if parsed == nil {
		s.logger.Warn("tarot model returned unparseable output")
	}
	return parsed
}

// extractJSON pulls the first top-level JSON object out of model output,
// tolerating markdown fences and surrounding prose.
func extractJSON(raw string) map[string]interface{} {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return nil
	}
	return out
}

// readingOf unwraps {"reading": {...}} replies; some models answer with the
// inner object directly.
func readingOf(parsed map[string]interface{}, key string) interface{} {
	if parsed == nil {
		return nil
	}
	if inner, ok := parsed[key]; ok {
		return inner
	}
	return parsed
}

// CardSlot pairs a drawn card with the question it answers.
type CardSlot struct {
	Name     string `json:"name"`
	Question string `json:"question"`
}

// DailyReading interprets three cards for love, mood and money today.
func (s *Service) DailyReading(ctx context.Context, name, birthday, card1, card2, card3 string) map[string]interface{} {
	today := time.Now().Format("02/01/2006")
	prompt := fmt.Sprintf(`Hãy luận giải 3 lá bài tarot cho ngày hôm nay (%s).

Thông tin người xem:
- Tên: %s
- Ngày sinh: %s

3 lá bài tarot:
1. %s - TÌNH YÊU trong ngày hôm nay
2. %s - TÂM TRẠNG trong ngày hôm nay
3. %s - TIỀN BẠC trong ngày hôm nay

Cấu trúc JSON:
{"reading": {"tinh-yeu": "Luận giải chi tiết về tình yêu dựa trên lá %s (100-150 từ)", "tam-trang": "Luận giải chi tiết về tâm trạng dựa trên lá %s (100-150 từ)", "tien-bac": "Luận giải chi tiết về tiền bạc dựa trên lá %s (100-150 từ)"}}`,
		today, name, birthday, card1, card2, card3, card1, card2, card3)

	reading := readingOf(s.ask(ctx, prompt), "reading")
	if reading == nil {
		reading = map[string]string{
			"tinh-yeu":  "Dựa trên lá bài " + card1 + ", hôm nay bạn có thể gặp những điều tích cực trong tình yêu. Hãy mở lòng và tin tưởng vào cảm xúc của mình.",
			"tam-trang": "Lá bài " + card2 + " cho thấy tâm trạng của bạn hôm nay sẽ ổn định và tích cực. Hãy giữ tinh thần lạc quan.",
			"tien-bac":  "Về mặt tài chính, lá bài " + card3 + " mang đến những tín hiệu tích cực. Hãy cân nhắc kỹ các quyết định tài chính.",
		}
	}
	return map[string]interface{}{
		"name":     name,
		"birthday": birthday,
		"cards": map[string]CardSlot{
			"card1": {Name: card1, Question: "Tình yêu"},
			"card2": {Name: card2, Question: "Tâm trạng"},
			"card3": {Name: card3, Question: "Tiền bạc"},
		},
		"reading": reading,
	}
}

var positiveCards = []string{"The Sun", "The Star", "The World", "The Wheel of Fortune", "The Magician", "The Fool"}

func yesNoFallback(cardName string) string {
	lower := strings.ToLower(cardName)
	for _, card := range positiveCards {
		if strings.Contains(lower, strings.ToLower(card)) {
			return "yes"
		}
	}
	return "no"
}

// YesNoReading answers a yes/no question with one revealed and one hidden
// card. The hidden card's name must never appear in the answer.
func (s *Service) YesNoReading(ctx context.Context, question, revealedCard, hiddenCard, revealedPosition string) map[string]interface{} {
	prompt := fmt.Sprintf(`Hãy luận giải câu hỏi yes/no dựa trên 2 lá bài tarot.

Câu hỏi: "%s"
Lá bài đã lật: %s (dùng để trả lời yes/no và giải thích)
Lá bài chưa lật: %s (KHÔNG ĐƯỢC tiết lộ tên lá này trong câu trả lời, chỉ nói về năng lượng và thông điệp của nó)

Cấu trúc JSON:
{"answer": {"yesNo": "yes hoặc no", "explanation": "Giải thích chi tiết dựa trên lá đã lật (150-200 từ)", "deeperInsight": "Giải thích sâu hơn dựa trên lá chưa lật, không nhắc tên lá (100-150 từ)"}}`,
		question, revealedCard, hiddenCard)

	answer := readingOf(s.ask(ctx, prompt), "answer")
	if answer == nil {
		verdict := yesNoFallback(revealedCard)
		word := "KHÔNG"
		if verdict == "yes" {
			word = "CÓ"
		}
		answer = map[string]string{
			"yesNo":         verdict,
			"explanation":   fmt.Sprintf("Dựa trên lá bài %s, câu trả lời cho câu hỏi của bạn là %s. Lá bài này mang đến những thông điệp quan trọng về tình huống bạn đang hỏi.", revealedCard, word),
			"deeperInsight": "Lá bài thứ hai chứa đựng những thông điệp sâu sắc hơn về tình huống này, nhưng bạn cần tự khám phá khi sẵn sàng.",
		}
	}
	return map[string]interface{}{
		"question": question,
		"revealedCard": map[string]string{
			"name":     revealedCard,
			"position": revealedPosition,
		},
		"answer": answer,
	}
}

// OneCardReading answers an open question with a single card.
func (s *Service) OneCardReading(ctx context.Context, question, card string) map[string]interface{} {
	prompt := fmt.Sprintf(`Hãy luận giải câu hỏi dựa trên 1 lá bài tarot.

Câu hỏi: "%s"
Lá bài: %s

Cấu trúc JSON:
{"reading": {"interpretation": "Luận giải chi tiết ý nghĩa lá bài trong bối cảnh câu hỏi (200-250 từ)", "guidance": "Lời khuyên và hướng dẫn cụ thể (100-150 từ)", "keyMessage": "Thông điệp chính ngắn gọn (1-2 câu)"}}`,
		question, card)

	reading := readingOf(s.ask(ctx, prompt), "reading")
	if reading == nil {
		reading = map[string]string{
			"interpretation": "Lá bài " + card + " mang đến thông điệp quan trọng cho câu hỏi của bạn. Hãy lắng nghe trực giác và tin tưởng vào hành trình của mình.",
			"guidance":       "Hãy suy ngẫm về câu hỏi của bạn và để năng lượng của lá bài này hướng dẫn bạn.",
		}
	}
	return map[string]interface{}{
		"question": question,
		"card":     map[string]string{"name": card},
		"reading":  reading,
	}
}

// LoveSimpleReading reads past, present and future of a love question.
func (s *Service) LoveSimpleReading(ctx context.Context, question, card1, card2, card3 string) map[string]interface{} {
	prompt := fmt.Sprintf(`Hãy luận giải về tình yêu dựa trên 3 lá bài tarot theo dòng thời gian.

Câu hỏi: "%s"
1. %s - QUÁ KHỨ trong tình yêu
2. %s - HIỆN TẠI trong tình yêu
3. %s - TƯƠNG LAI trong tình yêu

Cấu trúc JSON:
{"reading": {"qua-khu": "Luận giải quá khứ dựa trên lá %s (150-200 từ)", "hien-tai": "Luận giải hiện tại dựa trên lá %s (150-200 từ)", "tuong-lai": "Luận giải tương lai dựa trên lá %s (150-200 từ)"}}`,
		question, card1, card2, card3, card1, card2, card3)

	reading := readingOf(s.ask(ctx, prompt), "reading")
	if reading == nil {
		reading = map[string]string{
			"qua-khu":   "Lá bài " + card1 + " cho thấy quá khứ tình yêu của bạn đã có những dấu ấn quan trọng. Những trải nghiệm này đã định hình con đường tình yêu của bạn.",
			"hien-tai":  "Lá bài " + card2 + " phản ánh tình hình tình yêu hiện tại của bạn. Đây là thời điểm quan trọng để bạn nhận thức và hành động.",
			"tuong-lai": "Lá bài " + card3 + " mang đến những tín hiệu về tương lai tình yêu của bạn. Hãy chuẩn bị cho những điều tích cực phía trước.",
		}
	}
	return map[string]interface{}{
		"question": question,
		"cards": map[string]CardSlot{
			"card1": {Name: card1, Question: "Quá khứ"},
			"card2": {Name: card2, Question: "Hiện tại"},
			"card3": {Name: card3, Question: "Tương lai"},
		},
		"reading": reading,
	}
}

var loveDeepQuestions = [5]string{
	"Năng lượng khi bước vào mối quan hệ",
	"Thử thách hay vấn đề trên hành trình yêu thương",
	"Dư âm từ những mối tình đã qua",
	"Điều cần chữa lành, hoàn thiện hoặc học hỏi",
	"Thông điệp về yêu thương bản thân",
}

// LoveDeepReading is the five-card love spread.
func (s *Service) LoveDeepReading(ctx context.Context, question string, cards [5]string) map[string]interface{} {
	prompt := fmt.Sprintf(`Hãy luận giải sâu sắc về tình yêu dựa trên 5 lá bài tarot.

Câu hỏi: "%s"
1. %s - Năng lượng bạn mang vào mối quan hệ
2. %s - Thử thách trên hành trình yêu thương
3. %s - Dư âm từ những mối tình đã qua
4. %s - Điều cần chữa lành hoặc học hỏi
5. %s - Thông điệp về yêu thương bản thân

Cấu trúc JSON:
{"reading": {"nang-luong": "...(150-200 từ)", "thu-thach": "...(150-200 từ)", "du-am": "...(150-200 từ)", "chua-lanh": "...(150-200 từ)", "yeu-thuong-ban-than": "...(150-200 từ)"}}`,
		question, cards[0], cards[1], cards[2], cards[3], cards[4])

	reading := readingOf(s.ask(ctx, prompt), "reading")
	if reading == nil {
		reading = map[string]string{
			"nang-luong":          "Lá bài " + cards[0] + " cho thấy năng lượng bạn mang theo khi bước vào mối quan hệ. Đây là những phẩm chất và tinh thần bạn đem đến cho tình yêu.",
			"thu-thach":           "Lá bài " + cards[1] + " chỉ ra những thử thách có thể xuất hiện trên hành trình yêu thương của bạn. Hãy chuẩn bị và học cách vượt qua.",
			"du-am":               "Lá bài " + cards[2] + " phản ánh dư âm từ những mối tình đã qua. Những trải nghiệm này đã định hình cách bạn yêu.",
			"chua-lanh":           "Lá bài " + cards[3] + " cho biết điều bạn cần chữa lành hoặc học hỏi thêm để yêu bền vững hơn. Đây là cơ hội để phát triển.",
			"yeu-thuong-ban-than": "Lá bài " + cards[4] + " mang đến thông điệp về việc trân trọng và yêu thương chính bản thân mình. Yêu bản thân là nền tảng của mọi tình yêu.",
		}
	}
	slots := map[string]CardSlot{}
	for i, name := range cards {
		slots[fmt.Sprintf("card%d", i+1)] = CardSlot{Name: name, Question: loveDeepQuestions[i]}
	}
	return map[string]interface{}{
		"question": question,
		"cards":    slots,
		"reading":  reading,
	}
}
