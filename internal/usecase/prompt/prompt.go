// Package prompt composes the text sent to the language model. All functions are pure.
package prompt

import (
	"strings"

	"github.com/kailas-cloud/bnccrag/internal/domain"
)

// Fixed prompt fragments.
const (
	Framing               = "Você é um assistente acadêmico especializado na BNCC."
	ContextLabel          = "Contexto:"
	RequestLabel          = "Solicitação:"
	AdditionalLabel       = "Instruções adicionais: "
	AssessmentInstruction = "incluir atividade avaliativa detalhada com critérios"
	SlidesInstruction     = "incluir estrutura de slides com títulos e bullets"
	NotFound              = "Não encontrado no contexto."
	sectionSep            = "\n\n"
	missingCode           = "N/A"
)

// Assemble builds the live prompt. Sections are blank-line separated and empty ones are omitted.
func Assemble(userPrompt string, context []string, includeAssessment, includeSlides bool) string {
	parts := []string{Framing}
	if len(context) > 0 {
		parts = append(parts, ContextLabel, strings.Join(context, sectionSep))
	}
	parts = append(parts, RequestLabel, userPrompt)

	var extras []string
	if includeAssessment {
		extras = append(extras, AssessmentInstruction)
	}
	if includeSlides {
		extras = append(extras, SlidesInstruction)
	}
	if len(extras) > 0 {
		parts = append(parts, AdditionalLabel+strings.Join(extras, "; "))
	}
	return strings.Join(parts, sectionSep)
}

const lessonPlanRules = `REGRAS:
1. Se as habilidades acima não forem relevantes para o tema, responda: "` + NotFound + `"
2. Use EXCLUSIVAMENTE as habilidades fornecidas no contexto.
3. Formate o plano com: Título, Códigos BNCC, Objetivos, Metodologia e Avaliação.`

// AssembleLessonPlan builds the strict prompt that cites each skill code next to its text.
// ok is false when docs is empty: the caller answers NotFound without calling the model.
func AssembleLessonPlan(question string, docs []domain.Document) (string, bool) {
	if len(docs) == 0 {
		return NotFound, false
	}

	entries := make([]string, len(docs))
	for i, d := range docs {
		code := d.Metadata.Code
		if code == "" {
			code = missingCode
		}
		entries[i] = "CÓDIGO: " + code + "\nDESCRIÇÃO: " + d.Content
	}

	var b strings.Builder
	b.WriteString(Framing)
	b.WriteString("\nCrie um plano de aula detalhado seguindo as diretrizes abaixo.")
	b.WriteString(sectionSep)
	b.WriteString("CONTEXTO (Habilidades extraídas do dataset):\n")
	b.WriteString(strings.Join(entries, sectionSep))
	b.WriteString(sectionSep)
	b.WriteString("SOLICITAÇÃO DO PROFESSOR:\n")
	b.WriteString(question)
	b.WriteString(sectionSep)
	b.WriteString(lessonPlanRules)
	return b.String(), true
}
