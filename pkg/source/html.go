package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/xhad/tenders/internal/models"
)

const blockTags = "p, div, br, li, tr, h1, h2, h3, h4, h5, h6, table, section, article, dt, dd"

var reHorizSpace = regexp.MustCompile(`[ \t\p{Zs}]+`)

func (s *Source) fetchHTML(ctx context.Context, urlStr string) (models.Document, error) {
	// Apply rate limiting
	if err := s.limiter.Wait(ctx); err != nil {
		return models.Document{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return models.Document{}, err
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return models.Document{}, fmt.Errorf("fetch %s: %w", urlStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Document{}, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, urlStr)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/pdf") {
		return models.Document{}, fmt.Errorf("%s: %w: remote PDF, download it first", urlStr, ErrUnsupported)
	}

	body, err := charset.NewReader(resp.Body, contentType)
	if err != nil {
		body = resp.Body
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return models.Document{}, fmt.Errorf("read %s: %w", urlStr, err)
	}

	pageURL, _ := url.Parse(urlStr)
	return s.htmlDocument(urlStr, raw, pageURL)
}

func (s *Source) readHTMLFile(path string) (models.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return s.htmlDocument(path, raw, &url.URL{Scheme: "file", Path: path})
}

func (s *Source) htmlDocument(source string, raw []byte, pageURL *url.URL) (models.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return models.Document{}, fmt.Errorf("parse %s: %w", source, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	content := extractMainContent(doc)

	if content == "" {
		article, err := readability.FromReader(bytes.NewReader(raw), pageURL)
		if err == nil {
			if article.Title != "" {
				title = article.Title
			}
			if articleDoc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content)); err == nil {
				content = selectionText(articleDoc.Selection)
			}
		} else {
			s.logger.Debug("readability failed", zap.String("source", source), zap.Error(err))
		}
	}

	// Fallback to body if nothing else found
	if content == "" {
		content = selectionText(doc.Find("body"))
	}

	return models.Document{
		Source:  source,
		Title:   title,
		Content: content,
		Pages:   1,
		Method:  "html",
	}, nil
}

// extractMainContent returns the text of the first main content container.
func extractMainContent(doc *goquery.Document) string {
	selectors := []string{
		"main",
		"article",
		"#content",
		".content",
		".tender-details",
	}

	for _, selector := range selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			return selectionText(selected.First())
		}
	}
	return ""
}

// selectionText renders a selection as text, keeping one line per block
// element so label/value pairs stay on their own lines.
func selectionText(sel *goquery.Selection) string {
	sel = sel.Clone()
	sel.Find("script, style, noscript").Remove()
	sel.Find(blockTags).Each(func(_ int, block *goquery.Selection) {
		block.BeforeHtml("\n")
		block.AfterHtml("\n")
	})
	sel.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
		cell.AfterHtml(" ")
	})

	return cleanContent(sel.Text())
}

// cleanContent collapses horizontal whitespace and drops blank lines.
func cleanContent(content string) string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(reHorizSpace.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
