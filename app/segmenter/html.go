package segmenter

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// RunHTML extracts the readable article from an HTML document (a scraped
// recipe page) and segments its text. pageURL may be empty; it only helps
// readability resolve relative links.
func (s *Segmenter) RunHTML(htmlData string, pageURL string, in Input) (Result, error) {
	if strings.TrimSpace(htmlData) == "" {
		return Result{}, fmt.Errorf("HTML data is empty")
	}

	var base *url.URL
	if pageURL != "" {
		if parsed, err := url.Parse(pageURL); err == nil {
			base = parsed
		}
	}

	article, err := readability.FromReader(strings.NewReader(htmlData), base)
	if err != nil {
		return Result{}, fmt.Errorf("failed to extract content: %w", err)
	}

	if article.TextContent == "" {
		return Result{}, fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully",
		"title", article.Title,
		"content_length", len(article.TextContent))

	if in.PostTitle == "" {
		in.PostTitle = article.Title
	}
	in.Text = article.TextContent

	result := s.Run(in)
	if result.ImageURL == "" {
		result.ImageURL = article.Image
	}

	return result, nil
}
