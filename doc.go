// Package newsletter renders a Markdown newsletter into a self-contained,
// email-safe HTML document.
//
// # Quick Start
//
//	gen, err := newsletter.NewGenerator(
//	    newsletter.WithCacheDir(".og_cache"),
//	    newsletter.WithOutputDir("output"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := gen.Generate(ctx, newsletter.Input{Path: "input/newsletter-2025-01.md"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.OutputPath)
//
// # Source Format
//
// The Markdown file starts with an optional frontmatter block and is split
// into sections by top-level headers:
//
//	---
//	date: 2025-01
//	title: What you missed
//	greeting: Hi friends,
//	---
//
//	# Introduction
//	Free text with [links](https://example.com), **bold** and *italic*.
//
//	# Writing
//	- https://example.com/post
//	- [Custom title](https://example.com/other) - Custom description
//
//	# Working
//	- https://github.com/someone/project
//
//	# Reading
//	- [A paper](https://arxiv.org/abs/1234.5678) - why it matters
//
//	# Closing
//	Until next month.
//
// Writing and Working entries become preview cards filled from the linked
// page's OpenGraph metadata. Reading entries become a bulleted list
// attributed to their source. Sections render in the fixed order shown
// above regardless of their order in the file; unknown sections are ignored.
//
// # Rendering Pipeline
//
//  1. Frontmatter and section parsing
//  2. OpenGraph lookup per card URL (memo, disk cache, network)
//  3. Fragment rendering with ref/campaign tracking on outgoing links
//  4. Document assembly from the email template
//
// Metadata failures never abort a render: the card falls back to a record
// derived from the URL and the failure is logged.
//
// # Templates
//
// The document layout is an embedded html/template. WithTemplateDir points
// the generator at a directory holding an email.html override. Fields are
// escaped for their context; .Body holds the rendered sections as trusted
// HTML. Markup for Outlook only goes through {{outlook "..."}}, since
// comments in template text are dropped.
package newsletter
