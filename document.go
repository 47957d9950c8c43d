package newsletter

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/alnah/go-newsletter/internal/pipeline"
)

const preheaderLength = 150

// templateFuncs are available to the email template and any override.
var templateFuncs = template.FuncMap{
	"outlook": outlookOnly,
}

// outlookOnly wraps markup in a conditional comment that only Outlook
// renders. html/template drops comments written in the template text.
func outlookOnly(markup string) template.HTML {
	return template.HTML("<!--[if mso]>" + markup + "<![endif]-->") // #nosec G203 -- markup comes from the template itself
}

// documentData feeds the email template. Body holds the rendered fragments;
// every other field is escaped by the template.
type documentData struct {
	Title         string
	Preheader     string
	ViewURL       string
	HomeURL       string
	IconURL       string
	SiteName      string
	Domain        string
	DateDisplay   string
	Body          template.HTML
	FeedbackEmail string
	FooterLinks   []documentLink
}

type documentLink struct {
	Label string
	URL   string
}

func (g *Generator) document(res *Result, body string) ([]byte, error) {
	data := documentData{
		Title:         res.Title,
		Preheader:     res.Preheader,
		HomeURL:       pipeline.AddTrackingParams(g.site.URL, res.Ref, true),
		IconURL:       g.site.IconURL,
		SiteName:      g.site.Name,
		Domain:        g.site.Domain,
		DateDisplay:   res.DateDisplay,
		Body:          template.HTML(body), // #nosec G203 -- fragments escape their own values
		FeedbackEmail: g.site.FeedbackEmail,
	}
	if g.site.ArchiveURL != "" {
		data.ViewURL = viewURL(g.site.ArchiveURL, res.Date)
	}
	for _, l := range g.site.Links {
		target := l.URL
		if l.Track {
			target = pipeline.AddTrackingParams(target, res.Ref, true)
		} else {
			target = pipeline.TrackOwnLink(target, res.Ref, g.site.Domain)
		}
		data.FooterLinks = append(data.FooterLinks, documentLink{Label: l.Label, URL: target})
	}

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return buf.Bytes(), nil
}

// viewURL is where the published copy of an issue lives.
func viewURL(archive, date string) string {
	if !strings.HasSuffix(archive, "/") {
		archive += "/"
	}
	return archive + OutputFileName(date)
}

// preheader derives the hidden preview text from the introduction.
func preheader(intro string) string {
	plain := pipeline.PlainText(intro)
	runes := []rune(plain)
	if len(runes) <= preheaderLength {
		return plain
	}
	return strings.TrimSpace(string(runes[:preheaderLength])) + "..."
}
