package distribution

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alnah/go-newsletter/internal/dateutil"
)

// issueDisplay is the month format of fallback subjects.
const issueDisplay = "January 2006"

// Subject returns the document <title>. Without one it falls back to
// "<site> - <Month YYYY> Newsletter" when stem ends in an issue date, and to
// "<site> Newsletter" otherwise.
func Subject(html []byte, stem, siteName string) string {
	if title := documentTitle(html); title != "" {
		return title
	}

	var month string
	if issue, ok := dateutil.IssueFromStem(stem); ok {
		month = issue.Format(issueDisplay)
	}

	switch {
	case siteName != "" && month != "":
		return siteName + " - " + month + " Newsletter"
	case siteName != "":
		return siteName + " Newsletter"
	case month != "":
		return month + " Newsletter"
	default:
		return "Newsletter"
	}
}

func documentTitle(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
