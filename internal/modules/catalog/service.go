package catalog

import (
	"context"
	"strings"
)

// Service exposes the storefront catalog to the product picker endpoints.
type Service interface {
	ListProducts(ctx context.Context, cursor string) (*ProductPage, error)
	ProductsByIDs(ctx context.Context, ids []string) (*ProductPage, error)
	ProductsByTags(ctx context.Context, tags []string, cursor string) (*ProductPage, error)
	ProductsByCollection(ctx context.Context, collectionID, cursor string) (*ProductPage, error)
	GetCollection(ctx context.Context, collectionID string) (*Collection, error)
}

type service struct{ provider Provider }

func NewService(provider Provider) Service { return &service{provider: provider} }

func (s *service) ListProducts(ctx context.Context, cursor string) (*ProductPage, error) {
	return s.provider.FetchProductsPage(ctx, AllProducts(), cursor)
}

func (s *service) ProductsByIDs(ctx context.Context, ids []string) (*ProductPage, error) {
	return s.provider.FetchProductsPage(ctx, ByIDs(ids), "")
}

func (s *service) ProductsByTags(ctx context.Context, tags []string, cursor string) (*ProductPage, error) {
	return s.provider.FetchProductsPage(ctx, ByTags(tags), cursor)
}

func (s *service) ProductsByCollection(ctx context.Context, collectionID, cursor string) (*ProductPage, error) {
	return s.provider.FetchProductsPage(ctx, ByCollection(collectionID), cursor)
}

func (s *service) GetCollection(ctx context.Context, collectionID string) (*Collection, error) {
	title, err := s.provider.GetCollectionTitle(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	return &Collection{ID: collectionID, Title: title}, nil
}

// SplitList parses a comma separated query value, dropping blanks.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return compact(strings.Split(raw, ","))
}
