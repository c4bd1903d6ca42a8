package model

import "time"

// Role represents who is using the current session.
type Role string

const (
	RoleNone    Role = ""
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Grade is a middle-school grade level (Global Success curriculum, grades 6-9).
type Grade string

const (
	Grade6 Grade = "6"
	Grade7 Grade = "7"
	Grade8 Grade = "8"
	Grade9 Grade = "9"
)

// TestType is the kind of test being composed. The labels are what the
// composer shows and what the generation prompt embeds, so they stay in
// Vietnamese.
type TestType string

const (
	TestType15Min    TestType = "15 Phút"
	TestType45Min    TestType = "1 Tiết (45 Phút)"
	TestTypeMidTerm1 TestType = "Giữa Kỳ 1"
	TestTypeFinal1   TestType = "Cuối Kỳ 1"
	TestTypeMidTerm2 TestType = "Giữa Kỳ 2"
	TestTypeFinal2   TestType = "Cuối Kỳ 2"
)

// Question is a single test item. A question with one or more options is
// multiple-choice and its Answer is an option letter (A, B, C, ...); a
// question without options is free-text and its Answer is the expected text.
type Question struct {
	ID          string   `json:"id" validate:"required"`
	Type        string   `json:"type"`
	Instruction string   `json:"instruction"`
	Content     string   `json:"content" validate:"required"`
	Options     []string `json:"options,omitempty"`
	Answer      string   `json:"answer" validate:"required"`
	Explanation string   `json:"explanation"`
}

// IsMultipleChoice reports whether the question is answered by option letter.
func (q Question) IsMultipleChoice() bool {
	return len(q.Options) > 0
}

// OptionLabel returns the letter label for an option position: 0 -> "A".
func OptionLabel(i int) string {
	return string(rune('A' + i))
}

// TestData is the single active test. At most one instance exists system-wide;
// the store owns the canonical copy and it is always written back whole.
type TestData struct {
	Title       string     `json:"title" validate:"required"`
	Grade       Grade      `json:"grade" validate:"required,oneof=6 7 8 9"`
	Unit        string     `json:"unit" validate:"required"`
	Duration    int        `json:"duration" validate:"required,min=1"`
	Questions   []Question `json:"questions" validate:"required,min=1,dive"`
	IsPublished bool       `json:"isPublished"`
}

// StudentResult records one completed attempt. Results are append-only and
// never edited after submission.
type StudentResult struct {
	ID           string            `json:"id"`
	StudentName  string            `json:"studentName"`
	StudentClass string            `json:"studentClass"`
	Score        float64           `json:"score"`
	MaxScore     float64           `json:"maxScore"`
	SubmittedAt  time.Time         `json:"submittedAt"`
	Answers      map[string]string `json:"answers"`
}

// DifficultyRatio maps a cognitive level label to its percentage share.
type DifficultyRatio map[string]int

// GenerateParams are the inputs to the test generation collaborator.
type GenerateParams struct {
	Grade           Grade           `json:"grade" validate:"required,oneof=6 7 8 9"`
	Unit            string          `json:"unit" validate:"required"`
	TestType        TestType        `json:"testType" validate:"required"`
	DifficultyRatio DifficultyRatio `json:"difficultyRatio"`
}

// AppConfig holds runtime parameters set via CLI flags.
type AppConfig struct {
	Addr          string
	BaseURL       string // public URL prefix used when building share links
	Lang          string
	SecureCookies bool
}
