package service

import (
	"math"

	"github.com/lshigami/quizsync/internal/model"
)

// ScoreResult is the outcome of grading one attempt.
type ScoreResult struct {
	CorrectCount   int
	TotalQuestions int
	Score          int // percentage, 0-100
	Passed         bool
}

type ScoreCalculatorService interface {
	Calculate(quiz *model.Quiz, answers model.AnswerMap) ScoreResult
}

type scoreCalculatorServiceImpl struct{}

func NewScoreCalculatorService() ScoreCalculatorService {
	return &scoreCalculatorServiceImpl{}
}

func (s *scoreCalculatorServiceImpl) Calculate(quiz *model.Quiz, answers model.AnswerMap) ScoreResult {
	return CalculateScore(quiz.Questions, answers, quiz.PassingThreshold())
}

// CalculateScore grades answers against questions. A single choice question
// is correct when its one selection is the correct option; a multiple choice
// question only when the selection equals the set of correct options. There
// is no partial credit. A quiz without questions scores 0 and fails.
func CalculateScore(questions []model.Question, answers model.AnswerMap, passingScore int) ScoreResult {
	result := ScoreResult{TotalQuestions: len(questions)}
	if len(questions) == 0 {
		return result
	}
	for i := range questions {
		if isCorrect(&questions[i], answers[questions[i].ID]) {
			result.CorrectCount++
		}
	}
	result.Score = int(math.Round(float64(result.CorrectCount) / float64(result.TotalQuestions) * 100))
	result.Passed = result.Score >= passingScore
	return result
}

func isCorrect(q *model.Question, selected []uint) bool {
	correct := q.CorrectOptionIDs()
	if q.Type != model.QuestionTypeMultipleChoice {
		return len(selected) == 1 && len(correct) == 1 && selected[0] == correct[0]
	}
	if len(correct) == 0 {
		return len(selected) == 0
	}
	want := make(map[uint]bool, len(correct))
	for _, id := range correct {
		want[id] = true
	}
	got := make(map[uint]bool, len(selected))
	for _, id := range selected {
		if !want[id] {
			return false
		}
		got[id] = true
	}
	return len(got) == len(want)
}
