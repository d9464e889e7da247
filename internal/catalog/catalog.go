// Package catalog manages the curated list of texts the library carries,
// loaded once from a YAML file. Descriptions are markdown and are rendered
// to HTML at load time.
package catalog

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/shastralib/granthalaya/internal/models"
)

// ErrBookNotFound reports an unknown catalog ID.
var ErrBookNotFound = fmt.Errorf("book not found")

type catalogFile struct {
	Books []models.Book `yaml:"books"`
}

// Catalog is the in-memory book list. It is immutable after Load.
type Catalog struct {
	books []models.Book
	byID  map[string]int
}

// Load reads the catalog from path. A missing file yields an empty catalog,
// so a deployment that only serves the scripture itself needs no catalog
// file at all.
func Load(path string, logger *zap.Logger) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if logger != nil {
				logger.Debug("No catalog file, starting empty", zap.String("path", path))
			}
			return c, nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	for i := range file.Books {
		book := &file.Books[i]
		if book.ID == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i)
		}
		if book.Title == "" {
			return nil, fmt.Errorf("catalog entry %q has no title", book.ID)
		}
		if _, dup := c.byID[book.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id: %s", book.ID)
		}
		if book.Description != "" {
			book.DescriptionHTML = renderMarkdown(book.Description)
		}
		c.byID[book.ID] = i
	}
	c.books = file.Books

	if logger != nil {
		logger.Info("Catalog loaded",
			zap.String("path", path),
			zap.Int("books", len(c.books)))
	}
	return c, nil
}

// List returns the books matching q in catalog order, plus the total match
// count before paging.
func (c *Catalog) List(q models.BookQuery) ([]models.Book, int) {
	q.Normalize()

	matched := make([]models.Book, 0, len(c.books))
	for _, book := range c.books {
		if matches(book, q) {
			matched = append(matched, book)
		}
	}
	total := len(matched)

	if q.Offset >= total {
		return []models.Book{}, total
	}
	end := q.Offset + q.Limit
	if end > total {
		end = total
	}
	return matched[q.Offset:end], total
}

// Get returns one book by ID.
func (c *Catalog) Get(id string) (*models.Book, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, ErrBookNotFound
	}
	return &c.books[i], nil
}

// Len returns the number of books in the catalog.
func (c *Catalog) Len() int {
	return len(c.books)
}

func matches(book models.Book, q models.BookQuery) bool {
	if q.Tradition != "" && !strings.EqualFold(book.Tradition, q.Tradition) {
		return false
	}
	if q.Language != "" && !strings.EqualFold(book.Language, q.Language) {
		return false
	}
	if q.Q != "" {
		needle := strings.ToLower(q.Q)
		haystack := strings.ToLower(book.Title + " " + book.Subtitle + " " + book.Description)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return html.EscapeString(md)
	}
	return buf.String()
}
