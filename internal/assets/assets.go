package assets

import (
	"errors"
	"fmt"
	"strings"
)

// EmailTemplateName is the template holding the full email document.
const EmailTemplateName = "email"

// Sentinel errors for template loading.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetName = errors.New("invalid template name")
	ErrInvalidBasePath  = errors.New("invalid template directory")
	ErrPathTraversal    = errors.New("template path escapes its directory")
)

// TemplateLoader returns the source of a template by bare name ("email"
// for email.html).
type TemplateLoader interface {
	LoadTemplate(name string) (string, error)
}

// defaultLoader serves LoadTemplate.
var defaultLoader = NewEmbeddedLoader()

// LoadTemplate returns a built-in template.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}

// ValidateAssetName rejects names that are empty or could select a file
// other than <name>.html in the template directory.
func ValidateAssetName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	case strings.ContainsAny(name, `/\.`):
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
