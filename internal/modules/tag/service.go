package tag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/georgemunganga/pricing-rules/internal/modules/catalog"
)

var ErrNameRequired = errors.New("tag name is required")

// Source lists the tags already used by the shop's products.
type Source interface {
	ListProductTags(ctx context.Context, cursor string) (*catalog.TagPage, error)
}

// Service defines the business logic for the tag picker.
type Service interface {
	// ListTags returns one page of product tags. The first page also carries
	// the merchant-created tags not yet used by any product.
	ListTags(ctx context.Context, shop, cursor string) (*TagList, error)
	CreateTag(ctx context.Context, shop, name string) (*Tag, error)
}

type service struct {
	repo   Repository
	source Source
}

func NewService(repo Repository, source Source) Service {
	return &service{repo: repo, source: source}
}

func (s *service) ListTags(ctx context.Context, shop, cursor string) (*TagList, error) {
	page, err := s.source.ListProductTags(ctx, cursor)
	if err != nil {
		return nil, err
	}
	list := &TagList{
		Tags:       append([]string{}, page.Tags...),
		NextCursor: page.NextCursor,
		HasNext:    page.HasNext,
	}
	if !catalog.IsFirstPage(cursor) {
		return list, nil
	}

	stored, err := s.repo.ListByShop(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored tags: %w", err)
	}
	seen := make(map[string]struct{}, len(list.Tags))
	for _, t := range list.Tags {
		seen[t] = struct{}{}
	}
	for _, t := range stored {
		if _, dup := seen[t.Name]; dup {
			continue
		}
		seen[t.Name] = struct{}{}
		list.Tags = append(list.Tags, t.Name)
	}
	return list, nil
}

func (s *service) CreateTag(ctx context.Context, shop, name string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	t := &Tag{ID: uuid.New(), Shop: shop, Name: name}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("shop", shop).Str("tag", name).Msg("tag created")
	return t, nil
}
