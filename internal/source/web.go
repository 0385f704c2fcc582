package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/verseworks/poemrag/internal/model"
)

const fetchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"

// WebSource scrapes one poem listing page. Each div.sons container holding a
// title paragraph, a p.source author line and a div.contson body yields one
// raw document; incomplete containers are skipped.
type WebSource struct {
	pageURL   string
	client    *http.Client
	snapshots SnapshotStore
	now       func() time.Time
}

func NewWebSource(pageURL string, snapshots SnapshotStore) *WebSource {
	return &WebSource{
		pageURL:   pageURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		snapshots: snapshots,
		now:       time.Now,
	}
}

func (s *WebSource) Fetch(ctx context.Context) ([]model.RawDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", s.pageURL, resp.Status)
	}

	page, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.pageURL, err)
	}
	docs := parsePoemPage(page)
	logutil.GetLogger(ctx).Info("fetched source page",
		zap.String("url", s.pageURL), zap.Int("documents", len(docs)))

	s.writeSnapshot(ctx, docs)
	return docs, nil
}

func parsePoemPage(page *goquery.Document) []model.RawDocument {
	var docs []model.RawDocument
	page.Find("div.sons").Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find("p").First().Text())
		authorSel := sel.Find("p.source")
		content := strings.TrimSpace(sel.Find("div.contson").Text())
		if title == "" || authorSel.Length() == 0 || content == "" {
			return
		}

		var author string
		links := authorSel.Find("a")
		if links.Length() >= 2 {
			// Listing pages render author and dynasty as two links.
			name := strings.TrimSpace(links.Eq(0).Text())
			dynasty := strings.TrimSpace(links.Eq(1).Text())
			author = dynasty + "·" + name
		} else {
			author = strings.TrimSpace(authorSel.Text())
		}

		docs = append(docs, model.RawDocument{
			Title:   title,
			Author:  author,
			Content: content,
		})
	})
	return docs
}

// writeSnapshot archives the batch as CSV. Best effort: a snapshot failure
// is logged and never fails the fetch.
func (s *WebSource) writeSnapshot(ctx context.Context, docs []model.RawDocument) {
	if s.snapshots == nil || len(docs) == 0 {
		return
	}
	fetchedAt := s.now()
	data, err := encodeSnapshotCSV(docs, fetchedAt)
	if err != nil {
		logutil.GetLogger(ctx).Warn("encode snapshot failed", zap.Error(err))
		return
	}
	key := snapshotKey(fetchedAt)
	if err := s.snapshots.Save(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
		logutil.GetLogger(ctx).Warn("save snapshot failed", zap.String("key", key), zap.Error(err))
		return
	}
	logutil.GetLogger(ctx).Info("snapshot saved", zap.String("key", key), zap.Int("documents", len(docs)))
}
