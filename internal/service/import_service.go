package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/acentos/bookstore/internal/model"
	"github.com/acentos/bookstore/internal/repo"
)

// ImportService bulk-loads the catalog from a CSV dataset. Column names vary
// between the public book datasets, so each field is looked up under the
// known aliases.
type ImportService struct {
	books *repo.BookRepo
}

func NewImportService(books *repo.BookRepo) *ImportService {
	return &ImportService{books: books}
}

type ImportReport struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

func (s *ImportService) ImportCSV(ctx context.Context, r io.Reader, truncate bool) (*ImportReport, error) {
	logger := logutil.GetLogger(ctx)
	if truncate {
		if err := s.books.Truncate(ctx); err != nil {
			return nil, fmt.Errorf("truncate books: %w", err)
		}
		logger.Warn("books table truncated before import")
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	report := &ImportReport{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			report.Errors++
			logger.Warn("bad csv row", zap.Int("line", line), zap.Error(err))
			continue
		}
		book, ok := rowToBook(columns, record)
		if !ok {
			report.Skipped++
			continue
		}
		created, err := s.books.Upsert(ctx, book)
		if err != nil {
			report.Errors++
			logger.Warn("failed to upsert book", zap.Int("line", line), zap.String("title", book.Title), zap.Error(err))
			continue
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
		if (report.Created+report.Updated)%1000 == 0 {
			logger.Info("import progress",
				zap.Int("created", report.Created),
				zap.Int("updated", report.Updated),
			)
		}
	}
	logger.Info("import finished",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", report.Errors),
	)
	return report, nil
}

func rowToBook(columns map[string]int, record []string) (*model.Book, bool) {
	get := func(names ...string) string {
		for _, name := range names {
			idx, ok := columns[name]
			if !ok || idx >= len(record) {
				continue
			}
			if v := strings.TrimSpace(record[idx]); v != "" {
				return v
			}
		}
		return ""
	}

	title := get("title", "book-title")
	if title == "" {
		return nil, false
	}
	authors := get("authors", "author", "book-author")
	description := get("description", "synopsis")
	isbn := get("isbn", "isbn13")
	rating, _ := strconv.ParseFloat(get("average_rating", "average-book-rating"), 64)
	ratingsCount, _ := strconv.Atoi(get("ratings_count", "rating-count"))
	year := parseYear(get("original_publication_year", "publication_date", "year-of-publication"))

	genre := get("genres", "genre")
	if genre == "" {
		genre = classifyGenre(title, description, authors)
	}

	price, _ := strconv.ParseFloat(get("price", "price_cop"), 64)
	if price <= 0 {
		price = syntheticPrice(title, rating)
	}

	return &model.Book{
		ISBN:            isbn,
		Title:           title,
		Authors:         authors,
		Genre:           genre,
		Publisher:       get("publisher"),
		PublicationYear: year,
		ImageURL:        normalizeImageURL(get("image_url", "cover_image", "image-url-m"), isbn),
		Description:     description,
		AverageRating:   rating,
		RatingsCount:    ratingsCount,
		Price:           price,
	}, true
}

func parseYear(raw string) int {
	if raw == "" {
		return 0
	}
	// Year columns arrive as "2004", "2004.0" or a full date.
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		if y := int(f); y >= 1000 && y <= 3000 {
			return y
		}
		return 0
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == '/' || r == '-' || r == ' ' })
	for _, field := range fields {
		if y, err := strconv.Atoi(field); err == nil && y >= 1000 && y <= 3000 {
			return y
		}
	}
	return 0
}

// normalizeImageURL upgrades plain http covers to https and falls back to
// the OpenLibrary cover endpoint when the dataset has no image for the row.
func normalizeImageURL(image, isbn string) string {
	if strings.HasPrefix(image, "http://") {
		return "https://" + strings.TrimPrefix(image, "http://")
	}
	if image != "" {
		return image
	}
	if isbn != "" {
		return fmt.Sprintf("https://covers.openlibrary.org/b/isbn/%s-L.jpg", isbn)
	}
	return "https://placehold.co/300x450?text=Sin+Imagen"
}

// syntheticPrice derives a stable pseudo-price from title length and rating
// for datasets without price data, clamped to a believable range.
func syntheticPrice(title string, rating float64) float64 {
	base := 8.0 + float64(len(title)%12)*0.8 + rating
	if base < 7.5 {
		base = 7.5
	}
	if base > 45.0 {
		base = 45.0
	}
	return roundPrice(base)
}

var genreKeywords = []struct {
	label    string
	keywords []string
}{
	{"Fantasía", []string{"harry potter", "fantasy", "witch", "wizard", "dragon", "hobbit", "ring"}},
	{"Ciencia Ficción", []string{"sci-fi", "science fiction", "robot", "space", "galaxy", "dune"}},
	{"Distopía", []string{"dystopia", "dystopian", "1984", "hunger games", "maze runner"}},
	{"Romance", []string{"romance", "love", "romántic", "pride and prejudice"}},
	{"Misterio", []string{"mystery", "detective", "sherlock", "case of", "whodunit"}},
	{"Thriller", []string{"thriller", "suspense", "conspiracy", "spy"}},
	{"Crimen", []string{"crime", "noir", "murder", "serial killer"}},
	{"Horror", []string{"horror", "terror", "vampire", "dracula"}},
	{"Historia", []string{"history", "historical", "wwii", "world war", "revolution"}},
	{"Biografía", []string{"biography", "memoir", "autobiography"}},
	{"Clásicos", []string{"classic", "don quixote", "moby dick", "odyssey", "iliad"}},
	{"Infantil", []string{"children", "kids", "picture book"}},
	{"Juvenil", []string{"young adult", "ya novel"}},
	{"Aventura", []string{"adventure", "journey", "quest"}},
	{"Filosofía", []string{"philosophy", "ethics"}},
	{"Poesía", []string{"poetry", "poems"}},
}

func classifyGenre(title, description, authors string) string {
	text := strings.ToLower(title + " " + description + " " + authors)
	for _, entry := range genreKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.label
			}
		}
	}
	return "General"
}
