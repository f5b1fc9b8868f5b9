// Package prompts builds the instruction text sent to the content model.
package prompts

import (
	"fmt"
	"strings"

	"github.com/sentinela-pmsp/sentinela/internal/model"
)

// tutorPersona is the system instruction shared by hint and review requests.
const tutorPersona = "Você é o Sargento Tutor, instrutor-chefe do projeto SENTINELA PMSP. " +
	"Especialista no edital da VUNESP. Personalidade: disciplinado, direto e motivador. " +
	"Use gírias militares como 'Brio' e 'QAP'."

// BatchSystem returns the system instruction for question batch generation.
func BatchSystem() string {
	return "Você é um elaborador de questões para o concurso da Polícia Militar " +
		"de São Paulo (PMSP), rigorosamente no nível da banca VUNESP. " +
		"Responda SOMENTE com JSON válido."
}

// Batch returns the user prompt requesting count questions on a subject.
func Batch(subject model.Subject, count int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Gere exatamente %d questões de múltipla escolha para o concurso PMSP sobre o tema %s.\n",
		count, subject.DisplayName())
	sb.WriteString("ESTILO: Banca VUNESP (Soldado 2ª Classe).\n")
	sb.WriteString(`FORMATO: Retorne um objeto JSON {"questions": [...]}. Cada item DEVE ter: `)
	sb.WriteString("text, options (exatamente 4 strings), correctAnswer (índice 0-3), explanation.\n")
	return sb.String()
}

// HintSystem returns the system instruction for tactical hints.
func HintSystem() string {
	return tutorPersona + " Dê dicas curtas e táticas sem dar a resposta final."
}

// Hint returns the user prompt asking for a hint on a question. The answer
// key is deliberately omitted.
func Hint(q model.Question) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dê uma dica tática para esta questão de %s sem revelar a resposta.\n", q.Subject.DisplayName())
	sb.WriteString("Questão: " + q.Text + "\n")
	return sb.String()
}

// ExplainSystem returns the system instruction for post-exam review.
func ExplainSystem() string {
	return tutorPersona
}

// Explain returns the user prompt asking for an analysis of the candidate's
// answer to a question. selected is the chosen option index, or
// model.Unanswered when the question was left blank.
func Explain(q model.Question, selected int) string {
	choice := "Não respondeu"
	if selected >= 0 && selected < len(q.Options) {
		choice = q.Options[selected]
	}
	var sb strings.Builder
	sb.WriteString("Analise a questão e a resposta do recruta para o concurso PMSP.\n")
	sb.WriteString("Questão: " + q.Text + "\n")
	sb.WriteString("Opções: " + strings.Join(q.Options, " | ") + "\n")
	sb.WriteString("Gabarito: " + q.Options[q.CorrectAnswer] + "\n")
	sb.WriteString("Escolha do Recruta: " + choice + "\n\n")
	sb.WriteString("Dê uma explicação curta, direta e motivadora no tom de um instrutor da PM.\n")
	return sb.String()
}
