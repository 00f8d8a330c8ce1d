package domain

import (
	"fmt"
	"sort"
)

// Answer pairs a question with the selected option. It is the submission shape.
type Answer struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

// AnswerMap is the collection shape used while an attempt is open:
// questionID -> optionID.
type AnswerMap map[string]string

// NewAnswerMap converts the submission shape into the collection shape.
// A question answered twice is rejected.
func NewAnswerMap(answers []Answer) (AnswerMap, error) {
	m := make(AnswerMap, len(answers))
	for _, a := range answers {
		if _, dup := m[a.QuestionID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAnswer, a.QuestionID)
		}
		m[a.QuestionID] = a.OptionID
	}
	return m, nil
}

// List converts the collection shape into the submission shape, ordered by
// the quiz's question order. Answers for questions outside the quiz are
// appended afterwards in a stable order so nothing is silently lost.
func (m AnswerMap) List(quiz Quiz) []Answer {
	out := make([]Answer, 0, len(m))
	seen := make(map[string]struct{}, len(m))
	for _, q := range quiz.Questions {
		if opt, ok := m[q.ID]; ok {
			out = append(out, Answer{QuestionID: q.ID, OptionID: opt})
			seen[q.ID] = struct{}{}
		}
	}
	if len(seen) == len(m) {
		return out
	}
	extra := make([]string, 0, len(m)-len(seen))
	for qid := range m {
		if _, ok := seen[qid]; !ok {
			extra = append(extra, qid)
		}
	}
	sort.Strings(extra)
	for _, qid := range extra {
		out = append(out, Answer{QuestionID: qid, OptionID: m[qid]})
	}
	return out
}

// Clone returns an independent copy.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Missing returns the ids of quiz questions without an answer, in quiz order.
func (m AnswerMap) Missing(quiz Quiz) []string {
	var missing []string
	for _, q := range quiz.Questions {
		if _, ok := m[q.ID]; !ok {
			missing = append(missing, q.ID)
		}
	}
	return missing
}
