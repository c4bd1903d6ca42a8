// Package curriculum carries the Global Success unit catalog the composer
// offers, the cognitive difficulty levels, and a built-in sample test for
// students who have no share code yet.
package curriculum

import "github.com/nhattran/eduai/internal/model"

var unitsByGrade = map[model.Grade][]string{
	model.Grade6: {
		"Unit 1: My New School",
		"Unit 2: My House",
		"Unit 3: My Friends",
		"Unit 4: My Neighbourhood",
		"Unit 5: Natural Wonders of the World",
		"Unit 6: Our Tet Holiday",
		"Unit 7: Television",
		"Unit 8: Sports and Games",
		"Unit 9: Cities around the World",
		"Unit 10: Our Houses in the Future",
		"Unit 11: Our Greener World",
		"Unit 12: Robots",
	},
	model.Grade7: {
		"Unit 1: Hobbies",
		"Unit 2: Healthy Living",
		"Unit 3: Community Service",
		"Unit 4: Music and Arts",
		"Unit 5: Food and Drink",
		"Unit 6: A Visit to School",
		"Unit 7: Traffic",
		"Unit 8: Films",
		"Unit 9: Festivals around the World",
		"Unit 10: Energy Sources",
		"Unit 11: Travelling in the Future",
		"Unit 12: English Speaking Countries",
	},
	model.Grade8: {
		"Unit 1: Leisure Time",
		"Unit 2: Life in the Countryside",
		"Unit 3: Teenagers",
		"Unit 4: Ethnic Groups of Viet Nam",
		"Unit 5: Our Customs and Traditions",
		"Unit 6: Lifestyles",
		"Unit 7: Environmental Protection",
		"Unit 8: Shopping",
		"Unit 9: Natural Disasters",
		"Unit 10: Communication",
		"Unit 11: Science and Technology",
		"Unit 12: Life on other planets",
	},
	model.Grade9: {
		"Unit 1: Local Environment",
		"Unit 2: City Life",
		"Unit 3: Teen Stress and Pressure",
		"Unit 4: Life in the Past",
		"Unit 5: Wonders of Viet Nam",
		"Unit 6: Viet Nam: Then and Now",
		"Unit 7: Recipes and Eating Habits",
		"Unit 8: Tourism",
		"Unit 9: English in the World",
		"Unit 10: Space Travel",
		"Unit 11: Changing Roles in Society",
		"Unit 12: My Future Career",
	},
}

// DifficultyLevels are the cognitive levels of the 2018 curriculum standard,
// in prompt order.
var DifficultyLevels = []string{"Nhận biết", "Thông hiểu", "Vận dụng", "Vận dụng cao"}

// Units returns the unit list for a grade, nil for an unknown grade.
func Units(g model.Grade) []string {
	return unitsByGrade[g]
}

// Grades lists the supported grades in order.
func Grades() []model.Grade {
	return []model.Grade{model.Grade6, model.Grade7, model.Grade8, model.Grade9}
}

// DefaultRatio is the composer's default difficulty split.
func DefaultRatio() model.DifficultyRatio {
	return model.DifficultyRatio{
		"Nhận biết":    40,
		"Thông hiểu":   30,
		"Vận dụng":     20,
		"Vận dụng cao": 10,
	}
}

// SampleTest returns a small fixed test so a student can try the portal
// without a teacher's share code. It installs as published.
func SampleTest() *model.TestData {
	return &model.TestData{
		Title:    "Đề mẫu - Unit 1: My New School",
		Grade:    model.Grade6,
		Unit:     "Unit 1: My New School",
		Duration: 15,
		Questions: []model.Question{
			{
				ID:          "s1",
				Type:        "Vocabulary & Grammar",
				Instruction: "Chọn đáp án đúng.",
				Content:     "My sister ___ English on Monday and Friday.",
				Options:     []string{"have", "has", "is having", "are having"},
				Answer:      "B",
				Explanation: "Chủ ngữ số ít dùng 'has' ở thì hiện tại đơn.",
			},
			{
				ID:          "s2",
				Type:        "Phonetics",
				Instruction: "Chọn từ có phần gạch chân phát âm khác.",
				Content:     "A. school  B. chair  C. chess  D. lunch",
				Options:     []string{"school", "chair", "chess", "lunch"},
				Answer:      "A",
				Explanation: "'school' đọc là /k/, các từ còn lại đọc là /tʃ/.",
			},
			{
				ID:          "s3",
				Type:        "Writing",
				Instruction: "Sắp xếp các từ thành câu hoàn chỉnh.",
				Content:     "to / walk / school / I / every day",
				Answer:      "I walk to school every day.",
				Explanation: "Trật tự câu: chủ ngữ + động từ + trạng ngữ.",
			},
		},
		IsPublished: true,
	}
}
