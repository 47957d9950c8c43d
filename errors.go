package newsletter

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown      = errors.New("markdown content cannot be empty")
	ErrReadMarkdown       = errors.New("failed to read markdown file")
	ErrWriteHTML          = errors.New("failed to write newsletter HTML")
	ErrTemplate           = errors.New("email template error")
	ErrInvalidTemplateDir = errors.New("invalid template directory")
	ErrInvalidIssueDate   = errors.New("invalid issue date")
)
