package tag

import (
	"context"
	"errors"
)

var ErrTagExists = errors.New("tag already exists")

// Repository defines storage for merchant-created tags.
type Repository interface {
	Create(ctx context.Context, t *Tag) error
	ListByShop(ctx context.Context, shop string) ([]*Tag, error)
}
