// Package assets holds the email document template.
//
// The built-in email.html is embedded in the binary. A template directory
// configured with --template-dir or paths.templateDir may override it; the
// Resolver tries that directory first and falls back to the embedded copy
// for any template it lacks.
//
// Names are bare identifiers mapped to <name>.html. Names containing dots
// or separators are rejected, and FilesystemLoader resolves symlinks so a
// template cannot point outside its directory.
package assets
