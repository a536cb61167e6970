package service

import (
	"context"

	"github.com/acentos/bookstore/internal/model"
	appErr "github.com/acentos/bookstore/internal/pkg/errors"
	"github.com/acentos/bookstore/internal/repo"
)

type FavoriteService struct {
	favorites *repo.FavoriteRepo
	books     *repo.BookRepo
}

func NewFavoriteService(favorites *repo.FavoriteRepo, books *repo.BookRepo) *FavoriteService {
	return &FavoriteService{favorites: favorites, books: books}
}

func (s *FavoriteService) Add(ctx context.Context, userID string, bookID int64) error {
	if userID == "" || bookID <= 0 {
		return appErr.ErrInvalid
	}
	if _, err := s.books.Get(ctx, bookID); err != nil {
		return err
	}
	return s.favorites.Add(ctx, userID, bookID)
}

func (s *FavoriteService) Remove(ctx context.Context, userID string, bookID int64) error {
	if userID == "" || bookID <= 0 {
		return appErr.ErrInvalid
	}
	removed, err := s.favorites.Remove(ctx, userID, bookID)
	if err != nil {
		return err
	}
	if !removed {
		return appErr.ErrNotFound
	}
	return nil
}

// List returns favorited books newest-first. Favorites pointing at books
// removed from the catalog are silently dropped.
func (s *FavoriteService) List(ctx context.Context, userID string) ([]model.Book, error) {
	if userID == "" {
		return nil, appErr.ErrInvalid
	}
	favorites, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(favorites) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(favorites))
	for _, f := range favorites {
		ids = append(ids, f.BookID)
	}
	books, err := s.books.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	ordered := make([]model.Book, 0, len(ids))
	for _, id := range ids {
		if book, ok := byID[id]; ok {
			ordered = append(ordered, book)
		}
	}
	return ordered, nil
}
