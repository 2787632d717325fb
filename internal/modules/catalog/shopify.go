package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/georgemunganga/pricing-rules/internal/config"
	"github.com/georgemunganga/pricing-rules/internal/platform/metrics"
)

const (
	productPageSize = 20
	tagPageSize     = 10
)

var (
	ErrInvalidScope       = errors.New("invalid catalog scope")
	ErrCollectionNotFound = errors.New("collection not found")
)

// UpstreamError marks a failure talking to the Shopify Admin API.
type UpstreamError struct {
	Operation string
	Err       error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("shopify %s: %v", e.Operation, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ── GraphQL documents ─────────────────────────────────────────────────────────

const productFields = `
fragment ProductFields on Product {
	id
	title
	tags
	featuredImage { url }
	collections(first: 20) { nodes { id title } }
	variants(first: 10) { nodes { id title price } }
}`

const productsQuery = `
query products($first: Int!, $after: String, $query: String) {
	products(first: $first, after: $after, query: $query) {
		nodes { ...ProductFields }
		pageInfo { endCursor hasNextPage hasPreviousPage }
	}
}` + productFields

const productsByIDsQuery = `
query productsByIds($ids: [ID!]!) {
	nodes(ids: $ids) {
		... on Product { ...ProductFields }
	}
}` + productFields

const collectionProductsQuery = `
query collectionProducts($id: ID!, $first: Int!, $after: String) {
	collection(id: $id) {
		products(first: $first, after: $after) {
			nodes { ...ProductFields }
			pageInfo { endCursor hasNextPage hasPreviousPage }
		}
	}
}` + productFields

const collectionTitleQuery = `
query collectionTitle($id: ID!) {
	collection(id: $id) { title }
}`

const productTagsQuery = `
query productTags($first: Int!, $after: String) {
	productTags(first: $first, after: $after) {
		nodes
		pageInfo { endCursor hasNextPage }
	}
}`

// ── wire types ────────────────────────────────────────────────────────────────

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse[T any] struct {
	Data   T              `json:"data"`
	Errors []graphQLError `json:"errors,omitempty"`
}

type graphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type shopifyPageInfo struct {
	EndCursor       string `json:"endCursor"`
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
}

type productNode struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Tags          []string `json:"tags"`
	FeaturedImage *struct {
		URL string `json:"url"`
	} `json:"featuredImage"`
	Collections struct {
		Nodes []Collection `json:"nodes"`
	} `json:"collections"`
	Variants struct {
		Nodes []Variant `json:"nodes"`
	} `json:"variants"`
}

type productConnection struct {
	Nodes    []productNode   `json:"nodes"`
	PageInfo shopifyPageInfo `json:"pageInfo"`
}

type productsData struct {
	Products productConnection `json:"products"`
}

type nodesData struct {
	Nodes []*productNode `json:"nodes"`
}

type collectionProductsData struct {
	Collection *struct {
		Products productConnection `json:"products"`
	} `json:"collection"`
}

type collectionTitleData struct {
	Collection *struct {
		Title string `json:"title"`
	} `json:"collection"`
}

type productTagsData struct {
	ProductTags struct {
		Nodes    []string        `json:"nodes"`
		PageInfo shopifyPageInfo `json:"pageInfo"`
	} `json:"productTags"`
}

// ── client ────────────────────────────────────────────────────────────────────

// ShopifyClient is a Provider backed by the Shopify Admin GraphQL API.
type ShopifyClient struct {
	shopDomain     string
	accessToken    string
	apiVersion     string
	httpClient     *http.Client
	retryBaseDelay time.Duration
}

func NewShopifyClient(cfg config.ShopifyConfig, httpClient *http.Client) *ShopifyClient {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &ShopifyClient{
		shopDomain:     cfg.ShopDomain,
		accessToken:    cfg.AccessToken,
		apiVersion:     cfg.APIVersion,
		httpClient:     httpClient,
		retryBaseDelay: graphqlRetryBaseDelay,
	}
}

func (c *ShopifyClient) FetchProductsPage(ctx context.Context, scope Scope, cursor string) (*ProductPage, error) {
	var after any
	if !IsFirstPage(cursor) {
		after = cursor
	}

	switch scope.Kind {
	case ScopeAll, "":
		var data productsData
		err := c.graphqlRequest(ctx, "products", productsQuery, map[string]any{
			"first": productPageSize,
			"after": after,
		}, &data)
		if err != nil {
			return nil, err
		}
		return toProductPage(data.Products), nil

	case ScopeTags:
		query := buildTagQuery(scope.Tags)
		if query == "" {
			return &ProductPage{Products: []Product{}}, nil
		}
		var data productsData
		err := c.graphqlRequest(ctx, "products_by_tags", productsQuery, map[string]any{
			"first": productPageSize,
			"after": after,
			"query": query,
		}, &data)
		if err != nil {
			return nil, err
		}
		return toProductPage(data.Products), nil

	case ScopeCollections:
		if strings.TrimSpace(scope.CollectionID) == "" {
			return nil, errors.Wrap(ErrInvalidScope, "collection id is required")
		}
		var data collectionProductsData
		err := c.graphqlRequest(ctx, "collection_products", collectionProductsQuery, map[string]any{
			"id":    scope.CollectionID,
			"first": productPageSize,
			"after": after,
		}, &data)
		if err != nil {
			return nil, err
		}
		if data.Collection == nil {
			return nil, errors.Wrapf(ErrCollectionNotFound, "collection %s", scope.CollectionID)
		}
		return toProductPage(data.Collection.Products), nil

	case ScopeSpecificProducts:
		ids := compact(scope.ProductIDs)
		if len(ids) == 0 {
			return &ProductPage{Products: []Product{}}, nil
		}
		var data nodesData
		if err := c.graphqlRequest(ctx, "products_by_ids", productsByIDsQuery, map[string]any{"ids": ids}, &data); err != nil {
			return nil, err
		}
		products := make([]Product, 0, len(data.Nodes))
		for _, n := range data.Nodes {
			if n == nil || n.ID == "" {
				continue
			}
			products = append(products, n.toProduct())
		}
		return &ProductPage{Products: products}, nil
	}

	return nil, errors.Wrapf(ErrInvalidScope, "unknown scope kind %q", scope.Kind)
}

func (c *ShopifyClient) GetCollectionTitle(ctx context.Context, collectionID string) (string, error) {
	if strings.TrimSpace(collectionID) == "" {
		return "", errors.Wrap(ErrInvalidScope, "collection id is required")
	}
	var data collectionTitleData
	if err := c.graphqlRequest(ctx, "collection_title", collectionTitleQuery, map[string]any{"id": collectionID}, &data); err != nil {
		return "", err
	}
	if data.Collection == nil {
		return "", errors.Wrapf(ErrCollectionNotFound, "collection %s", collectionID)
	}
	return data.Collection.Title, nil
}

func (c *ShopifyClient) ListProductTags(ctx context.Context, cursor string) (*TagPage, error) {
	var after any
	if !IsFirstPage(cursor) {
		after = cursor
	}
	var data productTagsData
	err := c.graphqlRequest(ctx, "product_tags", productTagsQuery, map[string]any{
		"first": tagPageSize,
		"after": after,
	}, &data)
	if err != nil {
		return nil, err
	}
	tags := data.ProductTags.Nodes
	if tags == nil {
		tags = []string{}
	}
	return &TagPage{
		Tags:       tags,
		NextCursor: data.ProductTags.PageInfo.EndCursor,
		HasNext:    data.ProductTags.PageInfo.HasNextPage,
	}, nil
}

// ── transport ─────────────────────────────────────────────────────────────────

func (c *ShopifyClient) endpoint() (string, error) {
	domain := strings.TrimSpace(c.shopDomain)
	if domain == "" {
		return "", errors.New("shopify shop domain is empty")
	}
	if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
		domain = "https://" + domain
	}
	domain = strings.TrimRight(domain, "/")
	if c.apiVersion == "" {
		return "", errors.New("shopify api version is empty")
	}
	return domain + "/admin/api/" + c.apiVersion + "/graphql.json", nil
}

func (c *ShopifyClient) shopifyAPIRequest(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build shopify request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send shopify request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read shopify response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newHTTPStatusError(resp.StatusCode, resp.Status, respBody)
	}
	return respBody, nil
}

// graphqlRequest posts one GraphQL document and decodes data into out. Throttling
// and transient 5xx responses are retried with exponential backoff.
func (c *ShopifyClient) graphqlRequest(ctx context.Context, operation, query string, variables map[string]any, out any) (err error) {
	ctx, span := otel.Tracer("catalog/shopify").Start(ctx, "shopify."+operation)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			err = &UpstreamError{Operation: operation, Err: err}
		}
		metrics.UpstreamRequests.WithLabelValues(operation, outcome).Inc()
		span.End()
	}()

	endpoint, err := c.endpoint()
	if err != nil {
		return err
	}
	body, err := json.Marshal(graphQLRequest{Query: strings.TrimSpace(query), Variables: variables})
	if err != nil {
		return errors.Wrap(err, "marshal graphql payload")
	}

	log := zerolog.Ctx(ctx)
	for attempt := 0; attempt <= graphqlRetryMax; attempt++ {
		span.SetAttributes(attribute.Int("shopify.attempt", attempt))

		raw, err := c.shopifyAPIRequest(ctx, endpoint, body)
		if err != nil {
			if attempt < graphqlRetryMax && isRetryableHTTPError(err) {
				log.Warn().Err(err).Str("operation", operation).Int("attempt", attempt).Msg("shopify request retry")
				metrics.UpstreamRequests.WithLabelValues(operation, "retry").Inc()
				if err := sleepWithContext(ctx, retryDelay(c.retryBaseDelay, attempt)); err != nil {
					return err
				}
				continue
			}
			return err
		}

		var resp graphQLResponse[json.RawMessage]
		if err := json.Unmarshal(raw, &resp); err != nil {
			return errors.Wrap(err, "decode graphql response")
		}
		if len(resp.Errors) > 0 {
			if isThrottleGraphQLError(resp.Errors) && attempt < graphqlRetryMax {
				log.Warn().Str("operation", operation).Int("attempt", attempt).Msg("shopify throttled")
				metrics.UpstreamRequests.WithLabelValues(operation, "retry").Inc()
				if err := sleepWithContext(ctx, retryDelay(c.retryBaseDelay, attempt)); err != nil {
					return err
				}
				continue
			}
			return errors.Errorf("graphql errors: %s", formatGraphQLErrors(resp.Errors))
		}
		if out == nil {
			return nil
		}
		if len(resp.Data) == 0 || string(resp.Data) == "null" {
			return errors.New("graphql response missing data")
		}
		return errors.Wrap(json.Unmarshal(resp.Data, out), "decode graphql data")
	}

	return errors.New("graphql retries exhausted")
}

// ── helpers ───────────────────────────────────────────────────────────────────

func formatGraphQLErrors(errs []graphQLError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := strings.TrimSpace(e.Message)
		if msg == "" {
			continue
		}
		if len(e.Path) > 0 {
			msg = fmt.Sprintf("%s (path: %v)", msg, e.Path)
		}
		parts = append(parts, msg)
	}
	if len(parts) == 0 {
		return "unknown graphql error"
	}
	return strings.Join(parts, "; ")
}

var tagEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// buildTagQuery renders a product search query matching any of tags.
func buildTagQuery(tags []string) string {
	var parts []string
	for _, t := range compact(tags) {
		parts = append(parts, fmt.Sprintf(`tag:"%s"`, tagEscaper.Replace(t)))
	}
	return strings.Join(parts, " OR ")
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func toProductPage(conn productConnection) *ProductPage {
	products := make([]Product, 0, len(conn.Nodes))
	for _, n := range conn.Nodes {
		products = append(products, n.toProduct())
	}
	return &ProductPage{
		Products: products,
		PageInfo: PageInfo{
			NextCursor:  conn.PageInfo.EndCursor,
			HasNext:     conn.PageInfo.HasNextPage,
			HasPrevious: conn.PageInfo.HasPreviousPage,
		},
	}
}

func (n productNode) toProduct() Product {
	p := Product{
		ID:          n.ID,
		Title:       n.Title,
		Tags:        n.Tags,
		Collections: n.Collections.Nodes,
		Variants:    n.Variants.Nodes,
	}
	if n.FeaturedImage != nil {
		p.ImageURL = n.FeaturedImage.URL
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Collections == nil {
		p.Collections = []Collection{}
	}
	if p.Variants == nil {
		p.Variants = []Variant{}
	}
	return p
}
