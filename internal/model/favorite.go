package model

type Favorite struct {
	UserID string `json:"user_id"`
	BookID int64  `json:"book_id"`
	Ctime  int64  `json:"ctime"`
}
