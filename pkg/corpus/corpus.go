// Package corpus is the document store: it owns the canonical list of
// curated documents, persisted as corpus.json, independent of search.
package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ouagalab/fasotour/internal/models"
)

// Documents shorter than this after cleaning are not admitted.
const MinDocumentLength = 50

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	controlRe    = regexp.MustCompile(`[\x{00}-\x{1f}\x{7f}-\x{9f}]`)
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
)

// Store holds the corpus documents and the set of source URLs.
type Store struct {
	path      string
	documents []models.Document
	sources   map[string]struct{}
}

func NewStore(path string) *Store {
	return &Store{
		path:    path,
		sources: make(map[string]struct{}),
	}
}

// Load reads the corpus file. A missing file is an empty corpus, not an
// error; a malformed file is reported but still leaves an empty corpus so
// the caller can continue.
func (s *Store) Load() ([]models.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("corpus file not found, starting empty", "path", s.path)
		s.documents = nil
		return nil, nil
	}
	if err != nil {
		s.documents = nil
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}

	var docs []models.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		s.documents = nil
		return nil, fmt.Errorf("malformed corpus file %s: %w", s.path, err)
	}

	s.documents = docs
	for _, doc := range docs {
		if doc.Metadata.URL != "" {
			s.sources[doc.Metadata.URL] = struct{}{}
		}
	}
	slog.Info("corpus loaded", "documents", len(docs), "path", s.path)
	return docs, nil
}

// Save writes the corpus file, creating parent directories as needed.
func (s *Store) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create corpus directory: %w", err)
	}

	data, err := json.MarshalIndent(s.documents, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode corpus: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write corpus: %w", err)
	}

	slog.Info("corpus saved", "documents", len(s.documents), "path", s.path)
	return nil
}

// Add cleans the text and appends a new document. Texts shorter than
// MinDocumentLength after cleaning are dropped; returns whether the
// document was admitted.
func (s *Store) Add(text, title, url, category, sourceType string) bool {
	cleaned := CleanText(text)
	if len(cleaned) < MinDocumentLength {
		slog.Debug("document too short, skipped", "title", title)
		return false
	}

	doc := models.Document{
		ID:   fmt.Sprintf("doc_%d", len(s.documents)+1),
		Text: cleaned,
		Metadata: models.Metadata{
			Title:      title,
			URL:        url,
			Category:   category,
			SourceType: sourceType,
			AddedDate:  time.Now().Format(time.RFC3339),
		},
	}

	s.documents = append(s.documents, doc)
	if url != "" {
		s.sources[url] = struct{}{}
	}
	return true
}

// Documents returns the canonical document list.
func (s *Store) Documents() []models.Document {
	return s.documents
}

// Statistics derives corpus-level counters.
func (s *Store) Statistics() models.CorpusStats {
	stats := models.CorpusStats{
		TotalDocuments: len(s.documents),
		Categories:     make(map[string]int),
		Sources:        len(s.sources),
	}

	for _, doc := range s.documents {
		stats.TotalCharacters += len(doc.Text)
		stats.TotalWords += len(strings.Fields(doc.Text))
		category := doc.Metadata.Category
		if category == "" {
			category = "unknown"
		}
		stats.Categories[category]++
	}
	if stats.TotalDocuments > 0 {
		stats.AverageDocLength = stats.TotalCharacters / stats.TotalDocuments
	}
	return stats
}

// CleanText normalizes whitespace and strips control characters and
// residual HTML tags. Whitespace is collapsed first so newlines and tabs
// become separating spaces instead of being swallowed by the control strip.
func CleanText(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = controlRe.ReplaceAllString(text, "")
	text = htmlTagRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// SaveSources writes the collected source URLs to the flat sources file,
// sorted, one per line.
func (s *Store) SaveSources(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create sources directory: %w", err)
	}

	urls := make([]string, 0, len(s.sources))
	for url := range s.sources {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	var b strings.Builder
	for _, url := range urls {
		b.WriteString(url)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write sources file: %w", err)
	}
	return nil
}

// SourceLines reads the flat sources file used by the keyword fallback,
// one entry per line. A missing file is an empty list.
func SourceLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("sources file not found, keyword fallback has no data", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open sources file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
