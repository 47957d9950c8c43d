// Package pipeline implements the text stages of newsletter rendering.
//
// Everything here is pure string work with no I/O:
//   - Line ending normalization, frontmatter and section splitting
//   - Link-list and reading-list line grammars
//   - Inline Markdown (links, bold, italic) to HTML spans
//   - Plain-text extraction for the hidden preheader via Goldmark
//   - URL rewriting: CDN image routing and ref/campaign tracking
//
// Network enrichment (OpenGraph) lives in internal/opengraph and the final
// document assembly in the root newsletter package.
package pipeline
