package domain

// GenerationRequest is an educator's free-text request plus optional toggles and filters.
type GenerationRequest struct {
	Prompt            string
	IncludeAssessment bool
	IncludeSlides     bool
	Year              string
	Stage             string
	Component         string
}

// Filter builds the retrieval filter carried by the request.
func (r GenerationRequest) Filter() Filter {
	return Filter{Year: r.Year, Stage: r.Stage, Component: r.Component}
}

// UsedFilters echoes the feature toggles that shaped the prompt.
type UsedFilters struct {
	IncludeAssessment bool
	IncludeSlides     bool
}

// GenerationResult is the live-path answer. Degraded marks an echoed prompt.
type GenerationResult struct {
	Text        string
	UsedFilters UsedFilters
	Degraded    bool
}
