package analyzer

import (
	"math"

	"campusassist/internal/models"
)

// GradeQuiz counts the answers that match each question's correct option.
func GradeQuiz(quiz *models.Quiz, answers models.AnswerSheet) models.Score {
	if quiz == nil || len(quiz.Questions) == 0 {
		return models.Score{}
	}
	correct := 0
	for _, q := range quiz.Questions {
		if answers[q.ID] == q.CorrectAnswer {
			correct++
		}
	}
	total := len(quiz.Questions)
	return models.Score{
		Correct:    correct,
		Total:      total,
		Percentage: int(math.Round(float64(correct) / float64(total) * 100)),
	}
}
