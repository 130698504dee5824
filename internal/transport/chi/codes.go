package chi

// ErrorCode is the machine-readable reason carried by every error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeIndexUnavailable       ErrorCode = "index_unavailable"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeVectorDimMismatch      ErrorCode = "vector_dim_mismatch"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
