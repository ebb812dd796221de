package model

type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "single_choice"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
)

type Question struct {
	ID          uint           `json:"id"`
	Text        string         `json:"text"`
	Type        QuestionType   `json:"type"`
	Options     []AnswerOption `json:"options"`
	Explanation *string        `json:"explanation,omitempty"`
}

func (q *Question) HasOption(optionID uint) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// CorrectOptionIDs returns the ids of the correct options in option order.
func (q *Question) CorrectOptionIDs() []uint {
	ids := make([]uint, 0, 1)
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}
