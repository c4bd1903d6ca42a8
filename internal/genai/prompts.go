package genai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nhattran/eduai/internal/curriculum"
	"github.com/nhattran/eduai/internal/model"
)

// buildGeneratePrompt composes the Vietnamese generation prompt. The product
// targets Vietnamese middle-school English teachers, so the instructions stay
// in Vietnamese while the test content itself is English.
func buildGeneratePrompt(p model.GenerateParams) string {
	ratio := p.DifficultyRatio
	if len(ratio) == 0 {
		ratio = curriculum.DefaultRatio()
	}
	var ratioParts []string
	for _, level := range curriculum.DifficultyLevels {
		ratioParts = append(ratioParts, fmt.Sprintf("%d", ratio[level]))
	}

	var sb strings.Builder
	sb.WriteString("Bạn là chuyên gia giáo dục Tiếng Anh THCS tại Việt Nam.\n")
	sb.WriteString(fmt.Sprintf("Hãy soạn một đề kiểm tra Tiếng Anh cho lớp %s, dựa trên sách Global Success, bài %s.\n", p.Grade, p.Unit))
	sb.WriteString(fmt.Sprintf("Loại đề: %s.\n", p.TestType))
	sb.WriteString(fmt.Sprintf("Tỷ lệ độ khó (Nhận biết/Thông hiểu/Vận dụng/Vận dụng cao): %s.\n\n", strings.Join(ratioParts, "/")))

	sb.WriteString("Yêu cầu các phần bắt buộc:\n")
	sb.WriteString("1. Phonetics (Pronunciation & Stress)\n")
	sb.WriteString(fmt.Sprintf("2. Vocabulary & Grammar (chủ đề %s)\n", p.Unit))
	sb.WriteString("3. Communication\n")
	sb.WriteString("4. Error Identification\n")
	sb.WriteString("5. Reading Comprehension\n")
	sb.WriteString("6. Writing (Reordering sentences or Sentence Transformation)\n\n")

	sb.WriteString("LƯU Ý QUAN TRỌNG:\n")
	sb.WriteString("- Các câu hỏi trắc nghiệm (Phonetics, Vocab, Grammar, Reading, Error) PHẢI có 4 đáp án trong mảng \"options\"; trường \"answer\" là chữ cái A, B, C hoặc D.\n")
	sb.WriteString("- Các câu hỏi Writing KHÔNG ĐƯỢC có mảng \"options\"; trường \"answer\" chứa đáp án đúng hoàn chỉnh.\n")
	sb.WriteString("- Ngôn ngữ đề bài: Tiếng Anh. Chỉ dẫn bằng Tiếng Việt.\n")
	sb.WriteString(fmt.Sprintf("- Độ khó phù hợp với học sinh lớp %s Việt Nam theo chuẩn 2018.\n\n", p.Grade))

	sb.WriteString("Trả lời CHỈ bằng một đối tượng JSON theo cấu trúc:\n")
	sb.WriteString(`{"title": "...", "grade": "` + string(p.Grade) + `", "unit": "...", "duration": <số phút>, "questions": [{"id": "q1", "type": "...", "instruction": "...", "content": "...", "options": ["...", "...", "...", "..."], "answer": "A", "explanation": "..."}]}`)
	sb.WriteString("\n")

	return sb.String()
}

// buildAnalysisPrompt composes the class-analysis prompt over the full
// results collection.
func buildAnalysisPrompt(results []model.StudentResult) (string, error) {
	data, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Dưới đây là danh sách kết quả bài kiểm tra Tiếng Anh của học sinh.\n")
	sb.WriteString("Hãy phân tích:\n")
	sb.WriteString("1. Nhận xét chung về năng lực cả lớp.\n")
	sb.WriteString("2. Chỉ ra các mảng kiến thức (Từ vựng, Ngữ pháp, Reading...) mà học sinh còn yếu.\n")
	sb.WriteString("3. Gợi ý các bài tập bổ trợ cho từng nhóm học sinh (Khá/Giỏi, Trung bình, Yếu).\n")
	sb.WriteString("Kết quả: ")
	sb.Write(data)
	sb.WriteString("\nNgôn ngữ: Tiếng Việt.\n")

	return sb.String(), nil
}
