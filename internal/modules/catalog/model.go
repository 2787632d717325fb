package catalog

// FirstPageCursor is the cursor value the admin UI sends for the first page.
// An empty cursor means the same thing.
const FirstPageCursor = "cursor"

// Product is a Shopify product as consumed by the pricing module.
type Product struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	ImageURL    string       `json:"image_url,omitempty"`
	Tags        []string     `json:"tags"`
	Collections []Collection `json:"collections"`
	Variants    []Variant    `json:"variants"`
}

type Collection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Variant prices are kept as the decimal strings Shopify returns.
type Variant struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price string `json:"price"`
}

type PageInfo struct {
	NextCursor  string `json:"next_cursor,omitempty"`
	HasNext     bool   `json:"has_next"`
	HasPrevious bool   `json:"has_previous"`
}

type ProductPage struct {
	Products []Product `json:"products"`
	PageInfo PageInfo  `json:"page_info"`
}

type TagPage struct {
	Tags       []string `json:"tags"`
	NextCursor string   `json:"next_cursor,omitempty"`
	HasNext    bool     `json:"has_next"`
}

// ScopeKind narrows a product fetch. Values mirror the pricing application types.
type ScopeKind string

const (
	ScopeAll              ScopeKind = "all"
	ScopeSpecificProducts ScopeKind = "specific_products"
	ScopeTags             ScopeKind = "tags"
	ScopeCollections      ScopeKind = "collections"
)

// Scope selects which products FetchProductsPage returns.
type Scope struct {
	Kind         ScopeKind
	ProductIDs   []string
	Tags         []string
	CollectionID string
}

func AllProducts() Scope { return Scope{Kind: ScopeAll} }

func ByIDs(ids []string) Scope { return Scope{Kind: ScopeSpecificProducts, ProductIDs: ids} }

func ByTags(tags []string) Scope { return Scope{Kind: ScopeTags, Tags: tags} }

func ByCollection(id string) Scope { return Scope{Kind: ScopeCollections, CollectionID: id} }

// IsFirstPage reports whether cursor asks for the first page.
func IsFirstPage(cursor string) bool {
	return cursor == "" || cursor == FirstPageCursor
}
