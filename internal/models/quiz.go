package models

import (
	"errors"
	"fmt"
	"time"
)

// OptionsPerQuestion is the number of choices every question carries.
const OptionsPerQuestion = 4

// Quiz is a generated multiple-choice practice quiz.
type Quiz struct {
	ID          string     `json:"id"`
	Questions   []Question `json:"questions"`
	GeneratedAt time.Time  `json:"generatedAt"`
}

// Question is one multiple-choice item. CorrectAnswer must equal one of Options.
type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// AnswerSheet maps question id to the selected option.
type AnswerSheet map[string]string

// Score is the graded result of an answer sheet.
type Score struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Validate checks the structural invariants of every question.
func (q *Quiz) Validate() error {
	if q == nil {
		return errors.New("quiz is missing")
	}
	if len(q.Questions) == 0 {
		return errors.New("quiz has no questions")
	}
	seen := make(map[string]struct{}, len(q.Questions))
	for i, question := range q.Questions {
		if question.ID == "" {
			return fmt.Errorf("question %d: id is required", i+1)
		}
		if _, ok := seen[question.ID]; ok {
			return fmt.Errorf("question %d: duplicate id %q", i+1, question.ID)
		}
		seen[question.ID] = struct{}{}
		if len(question.Options) != OptionsPerQuestion {
			return fmt.Errorf("question %s: expected %d options, got %d", question.ID, OptionsPerQuestion, len(question.Options))
		}
		if !question.HasOption(question.CorrectAnswer) {
			return fmt.Errorf("question %s: correct answer is not one of the options", question.ID)
		}
	}
	return nil
}

// Question returns the question with the given id.
func (q *Quiz) Question(id string) (*Question, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i], true
		}
	}
	return nil, false
}

func (q *Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

func (q *Quiz) Clone() *Quiz {
	if q == nil {
		return nil
	}
	c := *q
	c.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		c.Questions[i] = question
	}
	return &c
}
