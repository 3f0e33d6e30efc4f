package session

import (
	"campusassist/internal/analyzer"
	"campusassist/internal/models"
)

func (s *Session) quizLocked(quizID string) (*quizState, error) {
	state, ok := s.quizzes[quizID]
	if !ok {
		return nil, invalid(ErrQuizNotFound, quizID)
	}
	return state, nil
}

// SelectAnswer records option as the answer to one question.
func (s *Session) SelectAnswer(quizID, questionID, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.quizLocked(quizID)
	if err != nil {
		return err
	}
	if state.submitted {
		return invalid(ErrQuizSubmitted, quizID)
	}
	question, ok := state.quiz.Question(questionID)
	if !ok {
		return invalid(ErrQuestionNotFound, questionID)
	}
	if !question.HasOption(option) {
		return invalid(ErrInvalidOption, option)
	}
	state.answers[questionID] = option
	s.lastActive = s.now()
	return nil
}

// SubmitQuiz grades the answer sheet. Every question must be answered.
func (s *Session) SubmitQuiz(quizID string) (models.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.quizLocked(quizID)
	if err != nil {
		return models.Score{}, err
	}
	if len(state.answers) < len(state.quiz.Questions) {
		return models.Score{}, invalid(ErrIncompleteAnswers, quizID)
	}
	state.submitted = true
	s.lastActive = s.now()
	return analyzer.GradeQuiz(state.quiz, state.answers), nil
}

// ResetQuiz discards the answer sheet so the quiz can be taken again.
func (s *Session) ResetQuiz(quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.quizLocked(quizID)
	if err != nil {
		return err
	}
	state.answers = models.AnswerSheet{}
	state.submitted = false
	s.lastActive = s.now()
	return nil
}
