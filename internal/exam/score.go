package exam

import "github.com/sentinela-pmsp/sentinela/internal/model"

// Score turns an exam and an answer map into a result. Pure function: an
// answer is correct iff present and equal to the question's correct index;
// absent entries count as incorrect. The breakdown covers exactly the
// subjects present in the exam.
func Score(exam *model.Exam, answers map[string]int, remainingSeconds int) model.Result {
	breakdown := make(map[model.Subject]model.Tally)
	score := 0
	for _, q := range exam.Questions {
		tally := breakdown[q.Subject]
		tally.Total++
		if selected, ok := answers[q.ID]; ok && selected == q.CorrectAnswer {
			score++
			tally.Correct++
		}
		breakdown[q.Subject] = tally
	}

	copied := make(map[string]int, len(answers))
	for id, selected := range answers {
		copied[id] = selected
	}

	elapsed := float64(exam.DurationMinutes*60-remainingSeconds) / 60
	if elapsed < 0 {
		elapsed = 0
	}

	return model.Result{
		ExamID:           exam.ID,
		Score:            score,
		Total:            len(exam.Questions),
		Answers:          copied,
		TimeSpentMinutes: elapsed,
		SubjectBreakdown: breakdown,
	}
}
