package assets

import (
	"errors"
)

// Resolver combines a custom directory with the embedded templates.
// Custom templates take precedence; a template missing from the custom
// directory falls back to the embedded copy.
type Resolver struct {
	custom   TemplateLoader // nil if no custom directory configured
	embedded TemplateLoader
}

// NewResolver creates a Resolver. An empty customDir uses embedded
// templates only. A non-empty customDir must be a readable directory.
func NewResolver(customDir string) (*Resolver, error) {
	r := &Resolver{
		embedded: NewEmbeddedLoader(),
	}

	if customDir != "" {
		fsLoader, err := NewFilesystemLoader(customDir)
		if err != nil {
			return nil, err
		}
		r.custom = fsLoader
	}

	return r, nil
}

// LoadTemplate loads a template, trying the custom directory first.
// Validation and I/O errors from the custom directory are returned as is.
func (r *Resolver) LoadTemplate(name string) (string, error) {
	if r.custom == nil {
		return r.embedded.LoadTemplate(name)
	}

	content, err := r.custom.LoadTemplate(name)
	if err == nil {
		return content, nil
	}
	if !errors.Is(err, ErrTemplateNotFound) {
		return "", err
	}

	return r.embedded.LoadTemplate(name)
}

// HasCustomLoader reports whether a custom directory is configured.
func (r *Resolver) HasCustomLoader() bool {
	return r.custom != nil
}

// Compile-time interface check.
var _ TemplateLoader = (*Resolver)(nil)
