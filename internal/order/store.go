package order

import (
	"context"
	"time"
)

type Item struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type Cart struct {
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Order struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Items      []Item    `json:"items"`
	TotalCents int64     `json:"total_cents"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	StatusNew       = "NEW"
	StatusCancelled = "CANCELLED"
)

// Sort keys accepted by ListOrders; anything else falls back to newest.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortTotalDesc = "total_desc"
	SortTotalAsc  = "total_asc"
)

type ListQuery struct {
	UserID  string
	Status  string
	Page    int
	PerPage int
	Sort    string
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

func (q ListQuery) normalized() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = defaultPerPage
	}
	if q.PerPage > maxPerPage {
		q.PerPage = maxPerPage
	}
	switch q.Sort {
	case SortNewest, SortOldest, SortTotalDesc, SortTotalAsc:
	default:
		q.Sort = SortNewest
	}
	return q
}

func (q ListQuery) offset() int {
	return (q.Page - 1) * q.PerPage
}

type Store interface {
	Ping(ctx context.Context) error

	GetCart(ctx context.Context, userID string) (Cart, error)
	PutCart(ctx context.Context, c Cart) error
	ClearCart(ctx context.Context, userID string) error

	CreateOrder(ctx context.Context, o Order) error
	GetOrder(ctx context.Context, id string) (Order, bool, error)
	ListOrders(ctx context.Context, q ListQuery) ([]Order, int, error)
	UpdateOrderStatus(ctx context.Context, id, status string) (bool, error)
}
