package domain

import "errors"

var (
	// ErrIndexUnavailable signals that the vector index failed to load.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrRetrievalFailed signals a failed similarity search.
	ErrRetrievalFailed = errors.New("retrieval failed")
	// ErrGenerationFailed signals a failed completion call.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrGroundingViolation signals generated codes absent from the retrieved context.
	ErrGroundingViolation = errors.New("grounding violation")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrChatProviderError signals a chat completion provider failure.
	ErrChatProviderError = errors.New("chat provider error")
	// ErrInvalidRequest signals a malformed caller request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
