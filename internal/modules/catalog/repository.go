package catalog

import "context"

// Provider is the read side of the storefront catalog.
type Provider interface {
	FetchProductsPage(ctx context.Context, scope Scope, cursor string) (*ProductPage, error)
	GetCollectionTitle(ctx context.Context, collectionID string) (string, error)
	ListProductTags(ctx context.Context, cursor string) (*TagPage, error)
}
