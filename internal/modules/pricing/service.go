package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/pricing-rules/internal/modules/catalog"
	"github.com/georgemunganga/pricing-rules/internal/platform/metrics"
)

const (
	// RulesPageSize is the number of rules on one page of the rules table.
	RulesPageSize = 25
	// MaxRulesPage bounds the page number so the row offset stays in range.
	MaxRulesPage = 100000
)

var (
	ErrCollectionNotInRule = errors.New("collection is not part of the rule scope")
	ErrPageOutOfRange      = errors.New("page out of range")
)

// Service defines the pricing rules business logic.
type Service interface {
	CreateRule(ctx context.Context, shop string, req CreateRuleRequest) (*RuleView, error)
	ListRules(ctx context.Context, shop string, page int) (*RulePage, error)
	GetRule(ctx context.Context, shop, id string) (*RuleView, error)

	// AffectedProducts prices one catalog page with every enabled rule of the shop.
	AffectedProducts(ctx context.Context, shop, cursor string) (*PricedPage, error)

	// AppliedProducts prices one page of the products in a rule's scope with that rule.
	// collectionID picks one of the rule's collections; empty means the first.
	AppliedProducts(ctx context.Context, shop, ruleID, cursor, collectionID string) (*PricedPage, error)
}

type service struct {
	repo    Repository
	catalog catalog.Provider
	tracer  trace.Tracer
}

func NewService(repo Repository, provider catalog.Provider) Service {
	return &service{repo: repo, catalog: provider, tracer: otel.Tracer("pricing")}
}

// ── Rules ─────────────────────────────────────────────────────────────────────

func (s *service) CreateRule(ctx context.Context, shop string, req CreateRuleRequest) (*RuleView, error) {
	v, err := validateCreateRule(req)
	if err != nil {
		return nil, err
	}

	rule := &PricingRule{
		ID:               uuid.New(),
		Shop:             shop,
		Name:             v.name,
		Priority:         v.priority,
		Status:           v.status,
		ApplicationType:  v.applicationType,
		CustomPriceType:  v.priceType,
		CustomPriceValue: v.amount,
		RuleApplications: make([]RuleApplication, 0, len(v.entityIDs)),
	}
	for _, id := range v.entityIDs {
		rule.RuleApplications = append(rule.RuleApplications, RuleApplication{
			ID:            uuid.New(),
			PricingRuleID: rule.ID,
			EntityType:    v.applicationType,
			EntityID:      id,
		})
	}

	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to persist pricing rule: %w", err)
	}
	metrics.RulesCreated.Inc()
	zerolog.Ctx(ctx).Info().
		Str("shop", shop).
		Str("rule_id", rule.ID.String()).
		Str("application_type", string(rule.ApplicationType)).
		Int("applications", len(rule.RuleApplications)).
		Msg("pricing rule created")

	view := NewRuleView(*rule)
	return &view, nil
}

func (s *service) ListRules(ctx context.Context, shop string, page int) (*RulePage, error) {
	if page < 1 {
		page = 1
	}
	if page > MaxRulesPage {
		return nil, fmt.Errorf("%w: %d > %d", ErrPageOutOfRange, page, MaxRulesPage)
	}
	rules, total, err := s.repo.ListRulesPage(ctx, shop, page, RulesPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list pricing rules: %w", err)
	}
	views := make([]RuleView, 0, len(rules))
	for _, r := range rules {
		views = append(views, NewRuleView(r))
	}
	return &RulePage{
		Rules: views,
		PageInfo: RulePageInfo{
			Total:       total,
			Page:        page,
			HasNext:     total > (page-1)*RulesPageSize+RulesPageSize,
			HasPrevious: page > 1,
		},
	}, nil
}

func (s *service) GetRule(ctx context.Context, shop, id string) (*RuleView, error) {
	rule, err := s.repo.GetRuleByID(ctx, shop, id)
	if err != nil {
		return nil, err
	}
	view := NewRuleView(*rule)
	return &view, nil
}

// ── Pricing ───────────────────────────────────────────────────────────────────

func (s *service) AffectedProducts(ctx context.Context, shop, cursor string) (result *PricedPage, err error) {
	ctx, span := s.tracer.Start(ctx, "pricing.AffectedProducts")
	defer endSpan(span, &err)

	var (
		page  *catalog.ProductPage
		rules []PricingRule
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = s.catalog.FetchProductsPage(gctx, catalog.AllProducts(), cursor)
		return err
	})
	g.Go(func() error {
		var err error
		rules, err = s.repo.ListEnabledRules(gctx, shop)
		if err != nil {
			return fmt.Errorf("failed to load pricing rules: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	start := time.Now()
	matches := MatchRules(page.Products, rules)
	metrics.MatchDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("pricing.products", len(page.Products)),
		attribute.Int("pricing.rules", len(rules)),
	)

	products := make([]PricedProduct, 0, len(matches))
	for _, m := range matches {
		metrics.MatchedRules.Observe(float64(len(m.Rules)))
		products = append(products, priceProduct(ctx, m.Product, m.Rules))
	}
	return &PricedPage{Products: products, PageInfo: page.PageInfo}, nil
}

func (s *service) AppliedProducts(ctx context.Context, shop, ruleID, cursor, collectionID string) (result *PricedPage, err error) {
	ctx, span := s.tracer.Start(ctx, "pricing.AppliedProducts", trace.WithAttributes(attribute.String("pricing.rule_id", ruleID)))
	defer endSpan(span, &err)

	rule, err := s.repo.GetRuleByID(ctx, shop, ruleID)
	if err != nil {
		return nil, err
	}
	scope, err := ruleScope(*rule, collectionID)
	if err != nil {
		return nil, err
	}
	page, err := s.catalog.FetchProductsPage(ctx, scope, cursor)
	if err != nil {
		return nil, err
	}

	products := make([]PricedProduct, 0, len(page.Products))
	for _, p := range page.Products {
		products = append(products, priceProduct(ctx, p, []PricingRule{*rule}))
	}
	return &PricedPage{Products: products, PageInfo: page.PageInfo}, nil
}

// ruleScope translates a rule's applications into a catalog query.
func ruleScope(rule PricingRule, collectionID string) (catalog.Scope, error) {
	ids := EntityIDs(rule)
	switch rule.ApplicationType {
	case ApplySpecificProducts:
		return catalog.ByIDs(ids), nil
	case ApplyTags:
		return catalog.ByTags(ids), nil
	case ApplyCollections:
		if collectionID == "" {
			if len(ids) == 0 {
				return catalog.ByIDs(nil), nil
			}
			return catalog.ByCollection(ids[0]), nil
		}
		for _, id := range ids {
			if id == collectionID {
				return catalog.ByCollection(id), nil
			}
		}
		return catalog.Scope{}, ErrCollectionNotInRule
	}
	return catalog.AllProducts(), nil
}

// priceProduct prices every variant with the first rule in rules. A variant
// whose price cannot be parsed carries an error and does not affect the others.
func priceProduct(ctx context.Context, p catalog.Product, rules []PricingRule) PricedProduct {
	out := PricedProduct{
		ID:          p.ID,
		Title:       p.Title,
		ImageURL:    p.ImageURL,
		Tags:        p.Tags,
		Collections: p.Collections,
		Rules:       make([]RuleView, 0, len(rules)),
		Variants:    make([]VariantPrice, 0, len(p.Variants)),
	}
	for _, r := range rules {
		out.Rules = append(out.Rules, NewRuleView(r))
	}

	var active *PricingRule
	if len(out.Rules) > 0 {
		out.ActiveRule = &out.Rules[0]
		active = &rules[0]
	}

	for _, v := range p.Variants {
		row := VariantPrice{Variant: v}
		b, err := ApplyRule(v.Price, active)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).
				Str("product_id", p.ID).
				Str("variant_id", v.ID).
				Msg("variant price not computed")
			row.Error = err.Error()
		} else {
			row.Breakdown = &b
			if active != nil {
				row.SavingsLabel = SavingsLabel(b.Savings)
			}
		}
		out.Variants = append(out.Variants, row)
	}
	return out
}

func endSpan(span trace.Span, err *error) {
	if *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}
