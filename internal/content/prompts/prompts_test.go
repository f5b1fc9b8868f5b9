package prompts

import (
	"strings"
	"testing"

	"github.com/sentinela-pmsp/sentinela/internal/model"
)

func promptQuestion() model.Question {
	return model.Question{
		ID:            "q1",
		Subject:       model.SubjectMathematics,
		Text:          "Qual o valor de 2+2?",
		Options:       []string{"3", "4", "5", "6"},
		CorrectAnswer: 1,
		Explanation:   "Soma direta.",
	}
}

func TestBatch(t *testing.T) {
	prompt := Batch(model.SubjectPortuguese, 6)
	if !strings.Contains(prompt, "6 questões") {
		t.Error("prompt should state the requested count")
	}
	if !strings.Contains(prompt, "Língua Portuguesa") {
		t.Error("prompt should carry the subject display name")
	}
	if !strings.Contains(prompt, "correctAnswer") {
		t.Error("prompt should describe the JSON shape")
	}
}

func TestHintNeverRevealsAnswer(t *testing.T) {
	q := promptQuestion()
	prompt := Hint(q)
	if !strings.Contains(prompt, q.Text) {
		t.Error("prompt should contain the question text")
	}
	if strings.Contains(prompt, "Gabarito") {
		t.Error("hint prompt must not carry the answer key")
	}
	if strings.Contains(prompt, q.Explanation) {
		t.Error("hint prompt must not carry the explanation")
	}
}

func TestExplain(t *testing.T) {
	q := promptQuestion()

	t.Run("answered", func(t *testing.T) {
		prompt := Explain(q, 2)
		if !strings.Contains(prompt, q.Options[2]) {
			t.Error("prompt should show the candidate's choice")
		}
		if !strings.Contains(prompt, q.Options[q.CorrectAnswer]) {
			t.Error("prompt should show the answer key")
		}
	})

	t.Run("unanswered", func(t *testing.T) {
		prompt := Explain(q, model.Unanswered)
		if !strings.Contains(prompt, "Não respondeu") {
			t.Error("prompt should mark the question as unanswered")
		}
	})
}
