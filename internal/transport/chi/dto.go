package chi

import (
	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/bnccrag/internal/domain"
	"github.com/kailas-cloud/bnccrag/internal/usecase/rag"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// GenerateRequest is the body of POST /rag/generate. A missing prompt is rejected; an empty one is not.
type GenerateRequest struct {
	Prompt            *string `json:"prompt" validate:"required"`
	IncludeAssessment bool    `json:"includeAssessment"`
	IncludeSlides     bool    `json:"includeSlides"`
	Componente        string  `json:"componente"`
	Ano               string  `json:"ano"`
	Etapa             string  `json:"etapa"`
}

func (r GenerateRequest) toDomain() domain.GenerationRequest {
	return domain.GenerationRequest{
		Prompt:            *r.Prompt,
		IncludeAssessment: r.IncludeAssessment,
		IncludeSlides:     r.IncludeSlides,
		Year:              r.Ano,
		Stage:             r.Etapa,
		Component:         r.Componente,
	}
}

type usedFiltersDTO struct {
	IncludeAssessment bool `json:"includeAssessment"`
	IncludeSlides     bool `json:"includeSlides"`
}

// GenerateResponse is the body returned by POST /rag/generate.
type GenerateResponse struct {
	Text        string         `json:"text"`
	UsedFilters usedFiltersDTO `json:"usedFilters"`
}

func generateResponse(r domain.GenerationResult) GenerateResponse {
	return GenerateResponse{
		Text: r.Text,
		UsedFilters: usedFiltersDTO{
			IncludeAssessment: r.UsedFilters.IncludeAssessment,
			IncludeSlides:     r.UsedFilters.IncludeSlides,
		},
	}
}

// LessonPlanRequest is the body of POST /rag/lesson-plan.
type LessonPlanRequest struct {
	Prompt     *string `json:"prompt" validate:"required"`
	Ano        string  `json:"ano"`
	Etapa      string  `json:"etapa"`
	Componente string  `json:"componente"`
	Model      string  `json:"model" validate:"omitempty,max=128"`
}

func (r LessonPlanRequest) toDomain() rag.LessonPlanRequest {
	return rag.LessonPlanRequest{
		Question: *r.Prompt,
		Filter:   domain.Filter{Year: r.Ano, Stage: r.Etapa, Component: r.Componente},
		Model:    r.Model,
	}
}

// LessonPlanResponse is the body returned by POST /rag/lesson-plan.
type LessonPlanResponse struct {
	Text            string   `json:"text"`
	Codes           []string `json:"codes"`
	UngroundedCodes []string `json:"ungroundedCodes"`
	NotFound        bool     `json:"notFound"`
}

func lessonPlanResponse(r rag.LessonPlanResult) LessonPlanResponse {
	return LessonPlanResponse{
		Text:            r.Text,
		Codes:           nonNil(r.Codes),
		UngroundedCodes: nonNil(r.Ungrounded),
		NotFound:        r.NotFound,
	}
}

// SearchRequest is the body of POST /rag/search. K 0 selects the configured default.
type SearchRequest struct {
	Query      *string `json:"query" validate:"required"`
	Ano        string  `json:"ano"`
	Etapa      string  `json:"etapa"`
	Componente string  `json:"componente"`
	K          int     `json:"k" validate:"gte=0,lte=100"`
}

func (r SearchRequest) filter() domain.Filter {
	return domain.Filter{Year: r.Ano, Stage: r.Etapa, Component: r.Componente}
}

type metadataDTO struct {
	Codigo     string `json:"codigo,omitempty"`
	Ano        string `json:"ano,omitempty"`
	Etapa      string `json:"etapa,omitempty"`
	Componente string `json:"componente,omitempty"`
}

type searchHitDTO struct {
	Content  string      `json:"content"`
	Score    float64     `json:"score"`
	Metadata metadataDTO `json:"metadata"`
}

// SearchResponse is the body returned by POST /rag/search.
type SearchResponse struct {
	Results []searchHitDTO `json:"results"`
}

func searchResponse(hits []domain.SimilarityResult) SearchResponse {
	out := SearchResponse{Results: make([]searchHitDTO, len(hits))}
	for i, h := range hits {
		md := h.Document.Metadata
		out.Results[i] = searchHitDTO{
			Content: h.Document.Content,
			Score:   h.Score,
			Metadata: metadataDTO{
				Codigo:     md.Code,
				Ano:        md.Year,
				Etapa:      md.Stage,
				Componente: md.Component,
			},
		}
	}
	return out
}

// HealthResponse is the body returned by GET /rag/health.
type HealthResponse struct {
	DBLoaded            bool              `json:"dbLoaded"`
	SampleRetrieveCount int               `json:"sampleRetrieveCount"`
	Checks              map[string]string `json:"checks,omitempty"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
