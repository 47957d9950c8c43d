package newsletter

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/alnah/go-newsletter/internal/pipeline"
)

// Section names, matched against lowercased headers.
const (
	sectionIntroduction = "introduction"
	sectionWriting      = "writing"
	sectionWorking      = "working"
	sectionReading      = "reading"
	sectionClosing      = "closing"
)

// Rendered section headings.
const (
	headingWriting = "What I've been writing"
	headingWorking = "What I've been working on"
	headingReading = "What I've been reading"
)

const (
	fontStack          = "-apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif"
	maxCardDescription = 150
	maxAltTitle        = 50
)

// knownSources labels reading-list hosts that do not titleize well.
var knownSources = map[string]string{
	"arxiv.org":       "arXiv",
	"papers.ssrn.com": "SSRN",
	"github.com":      "GitHub",
	"medium.com":      "Medium",
	"substack.com":    "Substack",
}

var titleCaser = cases.Title(language.Und)

// renderer builds the body fragments of one issue.
type renderer struct {
	site    Site
	cdn     pipeline.CDNOptions
	ref     string
	fetcher PreviewFetcher
	logger  logrus.FieldLogger

	cards        int
	readingItems int
}

// body renders the sections in their fixed order. Absent sections and link
// sections without a parsable entry produce nothing.
func (r *renderer) body(ctx context.Context, sections pipeline.Sections, greeting string) (string, error) {
	var b strings.Builder

	if greeting = strings.TrimSpace(greeting); greeting != "" {
		b.WriteString(renderGreeting(greeting))
	}

	if intro, ok := sections.Get(sectionIntroduction); ok {
		b.WriteString(r.renderText(intro))
	}

	for _, s := range []struct{ name, heading string }{
		{sectionWriting, headingWriting},
		{sectionWorking, headingWorking},
	} {
		content, ok := sections.Get(s.name)
		if !ok {
			continue
		}
		items := pipeline.ParseLinkList(content)
		if len(items) == 0 {
			continue
		}
		r.logger.WithFields(logrus.Fields{"section": s.name, "items": len(items)}).Info("fetching link previews")

		b.WriteString(renderSectionHeader(s.heading))
		b.WriteString("\n<tr><td>")
		for i, item := range items {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			preview := r.fetcher.Fetch(ctx, item.URL)
			b.WriteString(r.renderCard(item, preview, i == 0))
			r.cards++
		}
		b.WriteString("\n</td></tr>")
	}

	if content, ok := sections.Get(sectionReading); ok {
		if items := pipeline.ParseReadingList(content); len(items) > 0 {
			b.WriteString(renderSectionHeader(headingReading))
			b.WriteString("\n" + `<tr><td><table cellpadding="0" cellspacing="0" border="0" width="100%">`)
			for _, item := range items {
				b.WriteString(r.renderReadingItem(item))
				r.readingItems++
			}
			b.WriteString("\n</table></td></tr>")
		}
	}

	if closing, ok := sections.Get(sectionClosing); ok {
		b.WriteString("\n" + `<tr><td style="padding-top: 16px;"></td></tr>`)
		b.WriteString(r.renderText(closing))
	}

	return b.String(), nil
}

func renderGreeting(greeting string) string {
	return fmt.Sprintf(`
        <tr>
            <td class="dark-text" style="padding: 0 0 8px 0; font-size: 18px; font-weight: 600; color: #333333;">
                %s
            </td>
        </tr>`, greeting)
}

// renderSectionHeader emits one of the fixed heading constants as is.
func renderSectionHeader(title string) string {
	return fmt.Sprintf(`
        <tr>
            <td style="padding: 28px 0 12px 0;">
                <h2 style="margin: 0; font-size: 15px; font-weight: 700; color: #333333; font-family: %s;">
                    %s
                </h2>
            </td>
        </tr>`, fontStack, title)
}

// renderText renders free text one table row per paragraph. Links to the
// site's own domain get tracking parameters; other text passes through.
func (r *renderer) renderText(text string) string {
	track := func(target string) string {
		return pipeline.TrackOwnLink(target, r.ref, r.site.Domain)
	}

	var b strings.Builder
	for _, para := range pipeline.Paragraphs(text) {
		fmt.Fprintf(&b, `
        <tr>
            <td style="padding: 8px 0; font-size: 15px; line-height: 1.75; color: #333333;">
                %s
            </td>
        </tr>`, pipeline.RenderInline(para, track))
	}
	return b.String()
}

// renderCard renders a preview card with the image on the left. Custom
// title and description from the list entry override the fetched ones.
func (r *renderer) renderCard(item pipeline.LinkItem, preview LinkPreview, first bool) string {
	link := pipeline.AddTrackingParams(item.URL, r.ref, true)

	title := firstNonEmpty(item.Title, preview.Title, preview.URL, item.URL)
	description := truncate(firstNonEmpty(item.Description, preview.Description), maxCardDescription)

	margin := "margin: 12px 0;"
	if first {
		margin = "margin: 0 0 12px 0;"
	}

	alt := "Article preview"
	if title != "" {
		alt = "Preview image for: " + prefix(title, maxAltTitle)
	}

	href := html.EscapeString(link)

	var image string
	if preview.Image != "" {
		src := pipeline.OptimizeImageURL(preview.Image, r.cdn)
		image = fmt.Sprintf(`
                <!--[if mso]>
                <td width="120" valign="top" style="padding: 12px 0 12px 12px;">
                <![endif]-->
                <!--[if !mso]><!-->
                <td class="card-image" width="120" style="padding: 12px 0 12px 12px; vertical-align: top;">
                <!--<![endif]-->
                    <a href="%s" style="text-decoration: none; display: block;">
                        <img src="%s" alt="%s" width="120" height="auto"
                             style="display: block; width: 120px; max-width: 100%%; height: auto; border-radius: 4px; border: 0;">
                    </a>
                </td>`, href, html.EscapeString(src), html.EscapeString(alt))
	}

	return fmt.Sprintf(`
        <table cellpadding="0" cellspacing="0" border="0" width="100%%" role="presentation"
               style="%s background-color: #ffffff; border: 1px solid #e9ecef; border-radius: 8px;">
            <tr>%s
                <td class="card-content" style="padding: 12px 14px; vertical-align: top;">
                    <a href="%s" style="text-decoration: none; display: block;">
                        <div style="font-weight: 600; font-size: 15px; line-height: 1.4; margin-bottom: 6px; color: #333333;">
                            %s
                        </div>
                    </a>
                    <div style="font-size: 15px; color: #666666; line-height: 1.75;">
                        %s
                    </div>
                </td>
            </tr>
        </table>`, margin, image, href, html.EscapeString(title), html.EscapeString(description))
}

// renderReadingItem renders one bulleted reading-list row with its source.
func (r *renderer) renderReadingItem(item pipeline.ReadingItem) string {
	link := pipeline.AddTrackingParams(item.URL, r.ref, true)

	var desc string
	if item.Description != "" {
		desc = `: <span style="color: #666666;">` + html.EscapeString(item.Description) + `</span>`
	}

	return fmt.Sprintf(`
        <tr>
            <td style="padding: 3px 0; font-size: 14px; line-height: 1.75; color: #333333;">
                <span style="font-size: 6px; vertical-align: middle;">&#9632;</span>&nbsp;&nbsp;
                <a href="%s" style="%s">%s</a>%s
                <span style="color: #999999; font-size: 12px;"> via %s</span>
            </td>
        </tr>`, html.EscapeString(link), pipeline.LinkStyle, html.EscapeString(item.Title), desc, html.EscapeString(SourceLabel(link)))
}

// SourceLabel names the publication a link points to: a fixed label for
// well-known hosts, otherwise the titleized first label of the host with
// any leading "www." removed.
func SourceLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)

	switch {
	case strings.HasPrefix(host, "arxiv"):
		return "arXiv"
	case strings.Contains(host, "ssrn"):
		return "SSRN"
	}
	if label, ok := knownSources[host]; ok {
		return label
	}

	host = strings.TrimPrefix(host, "www.")
	first, _, _ := strings.Cut(host, ".")
	return titleCaser.String(first)
}

// truncate shortens s to max runes, ending in "...".
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// prefix returns at most n runes of s.
func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
