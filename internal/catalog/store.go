package catalog

import (
	"context"
	"errors"
)

var (
	ErrExists      = errors.New("already exists")
	ErrBadArgument = errors.New("bad argument")
)

type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Brand      Brand    `json:"brand"`
	PriceCents int64    `json:"price_cents"`
	ImageURLs  []string `json:"image_urls,omitempty"`
	Quantity   int      `json:"quantity"`
}

type QuizOption struct {
	Label      string `json:"label"`
	SkinTypeID string `json:"skin_type_id"`
}

type QuizQuestion struct {
	ID       string       `json:"id"`
	Prompt   string       `json:"prompt"`
	Position int          `json:"position"`
	Options  []QuizOption `json:"options"`
}

type SkinType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ListParams paginates table-style listings.
type ListParams struct {
	Page    int
	PerPage int
	Sort    string
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

func (p ListParams) normalized() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return p
}

func (p ListParams) offset() int {
	return (p.Page - 1) * p.PerPage
}

type Store interface {
	Ping(ctx context.Context) error

	// ListProducts returns the whole catalog in catalog order (by ID).
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, bool, error)
	CreateProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, p Product) (bool, error)
	DeleteProduct(ctx context.Context, id string) (bool, error)

	ListBrands(ctx context.Context) ([]Brand, error)
	GetBrand(ctx context.Context, id string) (Brand, bool, error)

	ListQuestions(ctx context.Context, params ListParams) ([]QuizQuestion, int, error)
	CreateQuestion(ctx context.Context, q QuizQuestion) error
	UpdateQuestion(ctx context.Context, q QuizQuestion) (bool, error)
	DeleteQuestion(ctx context.Context, id string) (bool, error)

	ListSkinTypes(ctx context.Context) ([]SkinType, error)
	CreateSkinType(ctx context.Context, st SkinType) error
}
