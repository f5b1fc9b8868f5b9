package exam

import (
	"context"
	"errors"
	"testing"

	"github.com/sentinela-pmsp/sentinela/internal/model"
)

const testReviewFallback = "no analysis"

func reviewQuestion() model.Question {
	return model.Question{
		ID:            "p1",
		Subject:       model.SubjectPortuguese,
		Text:          "q",
		Options:       []string{"A", "B", "C", "D"},
		CorrectAnswer: 0,
	}
}

func TestExplainMemoizedByQuestionID(t *testing.T) {
	fake := &fakeContent{}
	a := NewAnalyzer(fake, testReviewFallback)
	q := reviewQuestion()

	first := a.Explain(context.Background(), q, 2)
	// The cache key is the question id only: a different selected option
	// still returns the first explanation without a new request.
	second := a.Explain(context.Background(), q, model.Unanswered)
	if first != second {
		t.Errorf("second explanation %q differs from first %q", second, first)
	}
	if _, _, explains := fake.calls(); explains != 1 {
		t.Errorf("content explain calls = %d, want 1", explains)
	}
}

func TestExplainDistinctQuestions(t *testing.T) {
	fake := &fakeContent{}
	a := NewAnalyzer(fake, testReviewFallback)

	q1 := reviewQuestion()
	q2 := reviewQuestion()
	q2.ID = "p2"

	a.Explain(context.Background(), q1, 0)
	a.Explain(context.Background(), q2, 0)
	if _, _, explains := fake.calls(); explains != 2 {
		t.Errorf("content explain calls = %d, want 2", explains)
	}
}

func TestExplainFallback(t *testing.T) {
	fake := &fakeContent{explainErr: errors.New("network down")}
	a := NewAnalyzer(fake, testReviewFallback)

	got := a.Explain(context.Background(), reviewQuestion(), 1)
	if got != testReviewFallback {
		t.Errorf("explanation = %q, want fallback %q", got, testReviewFallback)
	}
}
