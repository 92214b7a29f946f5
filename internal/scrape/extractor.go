package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxExtractedImages caps how many listing photos are pulled from one page
const maxExtractedImages = 6

// ExtractImageURLs pulls listing photo URLs out of a page. Only JPEG sources
// are considered (portals serve property photos as .jpg, everything else is
// icons and tracking pixels). Relative sources are resolved against baseURL,
// duplicates dropped, order of first appearance preserved.
func ExtractImageURLs(html, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var urls []string

	doc.Find("img[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, _ := sel.Attr("src")
		if !isJPEG(src) {
			return true
		}

		ref, err := url.Parse(src)
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref).String()

		if _, ok := seen[abs]; ok {
			return true
		}
		seen[abs] = struct{}{}
		urls = append(urls, abs)

		return len(urls) < maxExtractedImages
	})

	return urls, nil
}

func isJPEG(src string) bool {
	s := strings.ToLower(src)
	// Strip a query string before checking the extension
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	return strings.HasSuffix(s, ".jpg") || strings.HasSuffix(s, ".jpeg")
}
