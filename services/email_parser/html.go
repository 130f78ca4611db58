package email_parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jaytaylor/html2text"
	"github.com/pkg/errors"

	leadstack_errors "github.com/relocrm/leadstack/errors"
)

var htmlMarkers = []string{"<html", "<body", "<div", "<p>", "<p ", "<br", "<table", "<span"}

func looksLikeHTML(s string) bool {
	lower := strings.ToLower(s)
	for _, marker := range htmlMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// HTMLToText strips scripts, styles and map/redirect links from an HTML body and
// renders the rest as plain text with one field per line.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", errors.Wrap(leadstack_errors.ErrUnparseable, err.Error())
	}

	doc.Find("script, style, head").Remove()
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if isGoogleLink(href) {
			a.Remove()
			return
		}
		// keep the label, drop the url html2text would append
		a.ReplaceWithHtml(a.Text())
	})

	cleaned, err := doc.Html()
	if err != nil {
		return "", errors.Wrap(leadstack_errors.ErrUnparseable, err.Error())
	}

	text, err := html2text.FromString(cleaned, html2text.Options{OmitLinks: true})
	if err != nil {
		return "", errors.Wrap(leadstack_errors.ErrUnparseable, err.Error())
	}
	return text, nil
}

func isGoogleLink(href string) bool {
	href = strings.ToLower(href)
	return strings.Contains(href, "google.") && (strings.Contains(href, "/maps") || strings.Contains(href, "/url?") || strings.Contains(href, "maps."))
}
