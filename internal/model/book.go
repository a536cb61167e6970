package model

// Book mirrors one row of the books table. Embedding is nil until the
// embedding job has processed the book; EmbeddingModel records which model
// produced the vector so vectors from different models are never compared.
type Book struct {
	ID              int64     `json:"id"`
	ISBN            string    `json:"isbn,omitempty"`
	Title           string    `json:"title"`
	Authors         string    `json:"authors,omitempty"`
	Genre           string    `json:"genre,omitempty"`
	Publisher       string    `json:"publisher,omitempty"`
	PublicationYear int       `json:"publication_year,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	Description     string    `json:"description,omitempty"`
	AverageRating   float64   `json:"average_rating,omitempty"`
	RatingsCount    int       `json:"ratings_count,omitempty"`
	Price           float64   `json:"price,omitempty"`
	Embedding       []float32 `json:"-"`
	EmbeddingModel  string    `json:"-"`
	Ctime           int64     `json:"ctime"`
	Mtime           int64     `json:"mtime"`
}

// BookVector is the slim projection the similarity ranker works on.
type BookVector struct {
	BookID    int64
	Embedding []float32
}
