package model

import (
	"errors"
	"fmt"
	"regexp"
)

// Sentinel errors shared by the exam and schedule packages.
var (
	// ErrContentUnavailable indicates a content generation request failed
	// or returned structurally invalid data.
	ErrContentUnavailable = errors.New("content unavailable")
	// ErrInvalidOperation indicates an operation attempted against a
	// session that is not in the required state.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrAlreadyFinished indicates a duplicate submit on a finished session.
	ErrAlreadyFinished = errors.New("session already finished")
)

// Subject identifies an exam subject area.
type Subject string

const (
	SubjectPortuguese       Subject = "PORTUGUESE"
	SubjectMathematics      Subject = "MATHEMATICS"
	SubjectGeneralKnowledge Subject = "GENERAL_KNOWLEDGE"
	SubjectComputerScience  Subject = "COMPUTER_SCIENCE"
	SubjectAdminLaw         Subject = "ADMIN_LAW"
)

// Subjects lists every subject in syllabus order.
var Subjects = []Subject{
	SubjectPortuguese,
	SubjectMathematics,
	SubjectGeneralKnowledge,
	SubjectComputerScience,
	SubjectAdminLaw,
}

var subjectNames = map[Subject]string{
	SubjectPortuguese:       "Língua Portuguesa",
	SubjectMathematics:      "Matemática",
	SubjectGeneralKnowledge: "Conhecimentos Gerais",
	SubjectComputerScience:  "Noções de Informática",
	SubjectAdminLaw:         "Noções de Administração Pública",
}

// DisplayName returns the subject's human-readable name.
func (s Subject) DisplayName() string {
	if name, ok := subjectNames[s]; ok {
		return name
	}
	return string(s)
}

// Valid reports whether s is one of the known subjects.
func (s Subject) Valid() bool {
	_, ok := subjectNames[s]
	return ok
}

// ParseSubject converts a string into a Subject.
func ParseSubject(raw string) (Subject, error) {
	s := Subject(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown subject %q", raw)
	}
	return s, nil
}

// OptionsPerQuestion is the fixed number of answer options on every question.
const OptionsPerQuestion = 4

// Unanswered is the selected-option sentinel for a question the candidate
// left blank.
const Unanswered = -1

// Question is a single multiple-choice question. Immutable once created.
type Question struct {
	ID            string   `json:"id"`
	Subject       Subject  `json:"subject"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// Validate checks the structural invariants of a question.
func (q Question) Validate() error {
	if q.Text == "" {
		return errors.New("question has empty text")
	}
	if !q.Subject.Valid() {
		return fmt.Errorf("question %s: unknown subject %q", q.ID, q.Subject)
	}
	if len(q.Options) != OptionsPerQuestion {
		return fmt.Errorf("question %s: %d options, want %d", q.ID, len(q.Options), OptionsPerQuestion)
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= OptionsPerQuestion {
		return fmt.Errorf("question %s: correct answer index %d out of range", q.ID, q.CorrectAnswer)
	}
	return nil
}

// Quota is a per-subject question count requested from the assembler.
type Quota struct {
	Subject Subject `json:"subject"`
	Count   int     `json:"count"`
}

// Exam is an assembled question set. Question order is the presentation
// order, fixed at assembly; the struct is shared read-only afterwards.
type Exam struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Questions       []Question `json:"questions"`
	DurationMinutes int        `json:"durationMinutes"`
}

// Validate checks the exam invariants: at least one question, a positive
// duration, and no duplicate question identifiers.
func (e Exam) Validate() error {
	if len(e.Questions) == 0 {
		return errors.New("exam has no questions")
	}
	if e.DurationMinutes <= 0 {
		return fmt.Errorf("exam duration %d minutes is not positive", e.DurationMinutes)
	}
	seen := make(map[string]bool, len(e.Questions))
	for _, q := range e.Questions {
		if seen[q.ID] {
			return fmt.Errorf("duplicate question id %s", q.ID)
		}
		seen[q.ID] = true
	}
	return nil
}

// QuestionByID returns the exam question with the given id.
func (e Exam) QuestionByID(id string) (Question, bool) {
	for _, q := range e.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Tally is a per-subject correct/total pair.
type Tally struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Result is the scored outcome of one exam attempt. Created once by the
// scorer and immutable afterwards.
type Result struct {
	ExamID           string            `json:"examId"`
	Score            int               `json:"score"`
	Total            int               `json:"total"`
	Answers          map[string]int    `json:"answers"`
	TimeSpentMinutes float64           `json:"timeSpentMinutes"`
	SubjectBreakdown map[Subject]Tally `json:"subjectBreakdown"`
}

var timeOfDayRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// StudySlot is a recurring weekly study commitment.
type StudySlot struct {
	ID        string  `json:"id"`
	Subject   Subject `json:"subject"`
	DayOfWeek int     `json:"dayOfWeek"` // 0=Sunday .. 6=Saturday
	Time      string  `json:"time"`      // "HH:MM", minute resolution
	Active    bool    `json:"active"`
}

// Validate checks the slot's day range and time format.
func (s StudySlot) Validate() error {
	if !s.Subject.Valid() {
		return fmt.Errorf("slot %s: unknown subject %q", s.ID, s.Subject)
	}
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return fmt.Errorf("slot %s: day of week %d out of range", s.ID, s.DayOfWeek)
	}
	if !timeOfDayRegex.MatchString(s.Time) {
		return fmt.Errorf("slot %s: time %q is not HH:MM", s.ID, s.Time)
	}
	return nil
}

// ThemeMode is the UI theme preference stored in the profile.
type ThemeMode string

const (
	ThemeLight   ThemeMode = "light"
	ThemeDark    ThemeMode = "dark"
	ThemeDynamic ThemeMode = "dynamic"
)

// Profile holds the candidate's display settings. The core reads it as
// context (display name for notifications); it is mutated only through the
// profile manager.
type Profile struct {
	Name       string    `json:"name"`
	Theme      ThemeMode `json:"theme"`
	AvatarSeed string    `json:"avatarSeed,omitempty"`
}
