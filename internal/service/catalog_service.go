package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/acentos/bookstore/internal/model"
	appErr "github.com/acentos/bookstore/internal/pkg/errors"
	"github.com/acentos/bookstore/internal/repo"
)

const defaultPageSize = 6

type CatalogService struct {
	books *repo.BookRepo
	// Filter options are enumerations over the whole table; they change only
	// on import, so a short-lived cache is enough.
	optionCache *expirable.LRU[string, []string]
}

func NewCatalogService(books *repo.BookRepo) *CatalogService {
	cache := expirable.NewLRU[string, []string](8, nil, 10*time.Minute)
	return &CatalogService{
		books:       books,
		optionCache: cache,
	}
}

type ListParams struct {
	Genres  []string
	Authors []string
	Query   string
	Page    int
	Size    int
}

type BookPage struct {
	Items []model.Book `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Size  int          `json:"size"`
}

func (s *CatalogService) List(ctx context.Context, params ListParams) (*BookPage, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	size := params.Size
	if size <= 0 {
		size = defaultPageSize
	}
	if size > 100 {
		size = 100
	}
	offset := (page - 1) * size

	query := strings.TrimSpace(params.Query)
	var (
		items []model.Book
		total int64
		err   error
	)
	if query != "" {
		items, err = s.books.Search(ctx, query, size, offset)
		if err != nil {
			return nil, err
		}
		total, err = s.books.SearchCount(ctx, query)
		if err != nil {
			return nil, err
		}
	} else {
		filter := repo.BookFilter{
			Genres:  params.Genres,
			Authors: params.Authors,
			Limit:   size,
			Offset:  offset,
		}
		items, err = s.books.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		total, err = s.books.Count(ctx, filter)
		if err != nil {
			return nil, err
		}
	}
	return &BookPage{Items: items, Total: total, Page: page, Size: size}, nil
}

func (s *CatalogService) Get(ctx context.Context, id int64) (*model.Book, error) {
	if id <= 0 {
		return nil, appErr.ErrInvalid
	}
	return s.books.Get(ctx, id)
}

type FilterOptions struct {
	Genres  []string `json:"genres"`
	Authors []string `json:"authors"`
}

func (s *CatalogService) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	genres, err := s.cachedOptions(ctx, "genres", s.books.DistinctGenres)
	if err != nil {
		return nil, err
	}
	authors, err := s.cachedOptions(ctx, "authors", s.books.DistinctAuthors)
	if err != nil {
		return nil, err
	}
	return &FilterOptions{Genres: genres, Authors: authors}, nil
}

type GenreCount struct {
	Genre string `json:"genre"`
	Total int64  `json:"total"`
}

type CatalogStats struct {
	ByYear    map[string]int64 `json:"by_year"`
	ByGenre   map[string]int64 `json:"by_genre"`
	TopGenres []GenreCount     `json:"top_genres"`
}

func (s *CatalogService) Statistics(ctx context.Context) (*CatalogStats, error) {
	byYear, err := s.books.CountByYear(ctx)
	if err != nil {
		return nil, err
	}
	byGenre, err := s.books.CountByGenre(ctx, 0)
	if err != nil {
		return nil, err
	}
	top := make([]GenreCount, 0, len(byGenre))
	for genre, total := range byGenre {
		top = append(top, GenreCount{Genre: genre, Total: total})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Total != top[j].Total {
			return top[i].Total > top[j].Total
		}
		return top[i].Genre < top[j].Genre
	})
	if len(top) > 10 {
		top = top[:10]
	}
	return &CatalogStats{ByYear: byYear, ByGenre: byGenre, TopGenres: top}, nil
}

func (s *CatalogService) cachedOptions(ctx context.Context, key string, load func(context.Context) ([]string, error)) ([]string, error) {
	if cached, ok := s.optionCache.Get(key); ok {
		return cached, nil
	}
	values, err := load(ctx)
	if err != nil {
		return nil, err
	}
	s.optionCache.Add(key, values)
	return values, nil
}
