package search

import (
	"fmt"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/sirupsen/logrus"

	"giggle/types"
)

const (
	extractWorkers   = 5
	extractorTimeout = 30 * time.Second
)

// Extract fetches a single URL and pulls out its readable content.
func Extract(url string, maxLength int) (*types.ExtractedPage, error) {
	if url == "" {
		return nil, fmt.Errorf("url is empty")
	}

	article, err := readability.FromURL(url, extractorTimeout)
	if err != nil {
		return nil, fmt.Errorf("readability extraction failed for %s: %w", url, err)
	}

	content := article.TextContent
	wordCount := len(strings.Fields(content))
	if maxLength > 0 && len(content) > maxLength {
		content = content[:maxLength] + "..."
	}

	return &types.ExtractedPage{
		URL:       url,
		Title:     article.Title,
		Content:   content,
		Excerpt:   article.Excerpt,
		Byline:    article.Byline,
		WordCount: wordCount,
		FetchedAt: time.Now(),
	}, nil
}

// ExtractAll extracts readable content from every URL using a bounded worker
// pool. Failures are recorded per page rather than aborting the batch.
func ExtractAll(urls []string, maxLength int) []*types.ExtractedPage {
	pages := make([]*types.ExtractedPage, len(urls))

	var wg sync.WaitGroup
	jobs := make(chan int, len(urls))

	for w := 0; w < extractWorkers; w++ {
		go func(workerID int) {
			for i := range jobs {
				page, err := Extract(urls[i], maxLength)
				if err != nil {
					logrus.WithError(err).WithField("worker", workerID).Warn("extraction failed")
					page = &types.ExtractedPage{
						URL:       urls[i],
						FetchedAt: time.Now(),
						Error:     err.Error(),
					}
				}
				pages[i] = page
				wg.Done()
			}
		}(w)
	}

	for i := range urls {
		wg.Add(1)
		jobs <- i
	}

	wg.Wait()
	close(jobs)
	return pages
}
