package processors

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	noisePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bJavaScript\s+is\s+disabled\b.*?enabled\.`),
		regexp.MustCompile(`(?i)\bCookies?\s+are\s+disabled\b.*?enabled\.`),
		regexp.MustCompile(`(?i)\bPlease\s+enable\s+JavaScript\b[^.]*\.?`),
		regexp.MustCompile(`(?i)\bThis\s+site\s+requires\s+JavaScript\b[^.]*\.?`),
		regexp.MustCompile(`(?i)\bWe\s+use\s+cookies\b[^.]*\.`),
	}
)

// HTMLCleaner turns a company or careers page into plain text suitable for a prompt
type HTMLCleaner struct {
	removeTags       []string
	companySelectors []string
	minBlockLength   int
}

func NewHTMLCleaner() *HTMLCleaner {
	return &HTMLCleaner{
		removeTags: []string{
			"script", "style", "noscript", "iframe", "object", "embed",
			"form", "input", "button", "select", "textarea",
			"nav", "aside", "menu", "svg", "template",
		},
		companySelectors: []string{
			"[id*='about']", "[class*='about']",
			"[id*='company']", "[class*='company']",
			"[id*='mission']", "[class*='mission']",
			"[class*='culture']", "[class*='values']",
			"main", "[role='main']", "article",
		},
		minBlockLength: 50,
	}
}

// ExtractCompanyContent returns the page's meta description followed by the
// text of blocks that usually describe the company. It falls back to the
// whole body when none of those blocks exist.
func (hc *HTMLCleaner) ExtractCompanyContent(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	for _, tag := range hc.removeTags {
		doc.Find(tag).Remove()
	}

	var parts []string
	seen := make(map[string]bool)
	add := func(text string) {
		text = hc.cleanText(text)
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		parts = append(parts, text)
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		add(title)
	}
	for _, sel := range []string{"meta[name='description']", "meta[property='og:description']"} {
		if desc, ok := doc.Find(sel).Attr("content"); ok {
			add(desc)
		}
	}

	found := false
	for _, selector := range hc.companySelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); len(text) >= hc.minBlockLength {
				add(text)
				found = true
			}
		})
		if found {
			break
		}
	}

	if !found {
		doc.Find("header, footer").Remove()
		add(doc.Find("body").Text())
	}

	return strings.Join(parts, "\n\n"), nil
}

// cleanText collapses whitespace and strips common cookie/JS banners
func (hc *HTMLCleaner) cleanText(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	for _, re := range noisePatterns {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// EstimateTokens gives a rough token count (~4 characters per token)
func (hc *HTMLCleaner) EstimateTokens(text string) int {
	return len(text) / 4
}
