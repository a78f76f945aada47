package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeExtraction    = "EXTRACTION_ERROR"
	ErrCodeEmbedding     = "EMBEDDING_ERROR"
	ErrCodeIngestion     = "INGESTION_ERROR"
	ErrCodeIndexNotFound = "INDEX_NOT_FOUND"
	ErrCodeSearch        = "SEARCH_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Pipeline errors
var (
	// ErrUnsupportedFileType is returned when no extractor is registered for
	// a document's MIME type.
	ErrUnsupportedFileType = NewDomainError(ErrCodeExtraction, "unsupported file type")

	// ErrEmptyDocument is returned when extraction yields no usable text.
	ErrEmptyDocument = NewDomainError(ErrCodeExtraction, "document contains no extractable text")

	// ErrVectorChunkMismatch is fatal to an ingestion call: the vector batch
	// and the chunk batch must have equal length.
	ErrVectorChunkMismatch = NewDomainError(ErrCodeIngestion, "vector count does not match chunk count")

	// ErrIndexNotFound means the knowledge base has had no prior ingestion.
	// Callers treat it as an empty result, not a failure.
	ErrIndexNotFound = NewDomainError(ErrCodeIndexNotFound, "no index exists for knowledge base")

	// ErrEmbeddingFailed is non-fatal: embedding degrades to zero vectors.
	ErrEmbeddingFailed = NewDomainError(ErrCodeEmbedding, "embedding generation failed")
)

// Validation errors
var (
	ErrMissingKnowledgeBaseID = NewDomainError(ErrCodeValidation, "knowledge base id is required")
	ErrEmptyQuery             = NewDomainError(ErrCodeValidation, "query cannot be empty")
	ErrEmptyText              = NewDomainError(ErrCodeValidation, "text cannot be empty")
	ErrInvalidURL             = NewDomainError(ErrCodeValidation, "url is invalid")
)

// NewExtractionError wraps an extraction failure with its cause.
func NewExtractionError(source string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeExtraction, fmt.Sprintf("failed to extract text from %s", source), err)
}

// NewIngestionError wraps a fatal ingestion failure with its cause.
func NewIngestionError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeIngestion, message, err)
}

// NewSearchError wraps an index read or deserialization failure.
func NewSearchError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeSearch, "index search failed", err)
}
