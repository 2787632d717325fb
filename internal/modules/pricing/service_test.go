package pricing

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/pricing-rules/internal/modules/catalog"
)

// ── fakes ─────────────────────────────────────────────────────────────────────

type memoryRepo struct {
	rules     []PricingRule
	createErr error
	now       time.Time
}

func (r *memoryRepo) CreateRule(_ context.Context, rule *PricingRule) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.now = r.now.Add(time.Second)
	rule.CreatedAt, rule.UpdatedAt = r.now, r.now
	r.rules = append(r.rules, *rule)
	return nil
}

func (r *memoryRepo) ListEnabledRules(_ context.Context, shop string) ([]PricingRule, error) {
	var out []PricingRule
	for _, rule := range r.rules {
		if rule.Shop == shop && rule.Status {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListRulesPage(_ context.Context, shop string, page, limit int) ([]PricingRule, int, error) {
	var all []PricingRule
	for _, rule := range r.rules {
		if rule.Shop == shop {
			all = append(all, rule)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (r *memoryRepo) GetRuleByID(_ context.Context, shop, id string) (*PricingRule, error) {
	for _, rule := range r.rules {
		if rule.Shop == shop && rule.ID.String() == id {
			rule := rule
			return &rule, nil
		}
	}
	return nil, ErrRuleNotFound
}

type stubProvider struct {
	products []catalog.Product
	scopes   []catalog.Scope
	err      error
}

func (p *stubProvider) FetchProductsPage(_ context.Context, scope catalog.Scope, cursor string) (*catalog.ProductPage, error) {
	p.scopes = append(p.scopes, scope)
	if p.err != nil {
		return nil, p.err
	}
	return &catalog.ProductPage{
		Products: p.products,
		PageInfo: catalog.PageInfo{NextCursor: "next", HasNext: true, HasPrevious: !catalog.IsFirstPage(cursor)},
	}, nil
}

func (p *stubProvider) GetCollectionTitle(context.Context, string) (string, error) { return "", nil }

func (p *stubProvider) ListProductTags(context.Context, string) (*catalog.TagPage, error) {
	return &catalog.TagPage{}, nil
}

const shop = "demo.myshopify.com"

func intPtr(n int) *int { return &n }

func validRequest() CreateRuleRequest {
	return CreateRuleRequest{
		Name:               "Winter sale",
		Priority:           intPtr(5),
		Status:             "enable",
		AppliedProductType: string(ApplyTags),
		PriceType:          string(PriceDecreasePercentage),
		Amount:             "25",
		SelectedIDs:        []string{"winter", " winter ", ""},
	}
}

func newTestService(products ...catalog.Product) (*memoryRepo, *stubProvider, Service) {
	repo := &memoryRepo{now: baseTime}
	provider := &stubProvider{products: products}
	return repo, provider, NewService(repo, provider)
}

// ── rules ─────────────────────────────────────────────────────────────────────

func TestCreateRule(t *testing.T) {
	repo, _, svc := newTestService()

	view, err := svc.CreateRule(context.Background(), shop, validRequest())
	if err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
	if len(repo.rules) != 1 {
		t.Fatalf("stored rules = %d", len(repo.rules))
	}
	stored := repo.rules[0]
	if stored.Shop != shop || !stored.Status || stored.Priority != 5 {
		t.Errorf("stored rule = %+v", stored)
	}
	if !stored.CustomPriceValue.Equal(dec("25")) {
		t.Errorf("value = %s", stored.CustomPriceValue)
	}
	if len(stored.RuleApplications) != 1 || stored.RuleApplications[0].EntityID != "winter" ||
		stored.RuleApplications[0].EntityType != ApplyTags || stored.RuleApplications[0].PricingRuleID != stored.ID {
		t.Errorf("applications = %+v", stored.RuleApplications)
	}
	if view.ValueLabel != "25%" || view.ApplicationLabel != "Product tags" {
		t.Errorf("view labels = %q, %q", view.ValueLabel, view.ApplicationLabel)
	}
}

func TestCreateRuleAllProductsIgnoresSelection(t *testing.T) {
	repo, _, svc := newTestService()
	req := validRequest()
	req.AppliedProductType = string(ApplyAll)

	if _, err := svc.CreateRule(context.Background(), shop, req); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
	if n := len(repo.rules[0].RuleApplications); n != 0 {
		t.Errorf("all-products rule stored %d applications", n)
	}
}

func TestCreateRuleValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateRuleRequest)
		field  string
	}{
		{"blank name", func(r *CreateRuleRequest) { r.Name = "  " }, "name"},
		{"missing priority", func(r *CreateRuleRequest) { r.Priority = nil }, "priority"},
		{"priority too high", func(r *CreateRuleRequest) { r.Priority = intPtr(101) }, "priority"},
		{"negative priority", func(r *CreateRuleRequest) { r.Priority = intPtr(-1) }, "priority"},
		{"bad status", func(r *CreateRuleRequest) { r.Status = "on" }, "status"},
		{"bad application type", func(r *CreateRuleRequest) { r.AppliedProductType = "vendors" }, "applied_product_type"},
		{"bad price type", func(r *CreateRuleRequest) { r.PriceType = "free" }, "price_type"},
		{"zero amount", func(r *CreateRuleRequest) { r.Amount = 0 }, "amount"},
		{"malformed amount", func(r *CreateRuleRequest) { r.Amount = "1O" }, "amount"},
		{"percentage above 100", func(r *CreateRuleRequest) { r.Amount = "100.5" }, "amount"},
		{"amount rounds to zero in storage", func(r *CreateRuleRequest) { r.Amount = "0.00001" }, "amount"},
		{"amount finer than four places", func(r *CreateRuleRequest) { r.Amount = "12.345678" }, "amount"},
		{"amount overflows storage", func(r *CreateRuleRequest) {
			r.PriceType = string(PriceFixed)
			r.Amount = "12345678901234"
		}, "amount"},
		{"empty selection", func(r *CreateRuleRequest) { r.SelectedIDs = []string{" "} }, "selected_ids"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _, svc := newTestService()
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.CreateRule(context.Background(), shop, req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want %s", verr.Fields, tt.field)
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("ValidationError should match ErrValidation")
			}
			if len(repo.rules) != 0 {
				t.Error("invalid rule was persisted")
			}
		})
	}
}

func TestCreateRuleEmptySelectionIsSelectionRequired(t *testing.T) {
	_, _, svc := newTestService()
	req := validRequest()
	req.AppliedProductType = string(ApplySpecificProducts)
	req.SelectedIDs = nil

	if _, err := svc.CreateRule(context.Background(), shop, req); !errors.Is(err, ErrSelectionRequired) {
		t.Fatalf("err = %v, want ErrSelectionRequired", err)
	}
}

func TestCreateRuleFixedPriceAllowsLargeAmount(t *testing.T) {
	_, _, svc := newTestService()
	req := validRequest()
	req.PriceType = string(PriceFixed)
	req.Amount = 250

	if _, err := svc.CreateRule(context.Background(), shop, req); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
}

func TestCreateRuleAcceptsStorableAmounts(t *testing.T) {
	for _, amount := range []any{"0.0001", "12.3400", "9999999999.9999", 19.99} {
		_, _, svc := newTestService()
		req := validRequest()
		req.PriceType = string(PriceFixed)
		req.Amount = amount

		if _, err := svc.CreateRule(context.Background(), shop, req); err != nil {
			t.Errorf("amount %v: %v", amount, err)
		}
	}
}

func TestCreateRuleWrapsStoreErrors(t *testing.T) {
	repo, _, svc := newTestService()
	boom := errors.New("db down")
	repo.createErr = boom

	if _, err := svc.CreateRule(context.Background(), shop, validRequest()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestListRulesPagination(t *testing.T) {
	repo, _, svc := newTestService()
	for i := 0; i < RulesPageSize+3; i++ {
		if _, err := svc.CreateRule(context.Background(), shop, validRequest()); err != nil {
			t.Fatal(err)
		}
	}
	repo.rules = append(repo.rules, PricingRule{ID: uuid.New(), Shop: "other.myshopify.com"})

	tests := []struct {
		page        int
		count       int
		hasNext     bool
		hasPrevious bool
	}{
		{0, RulesPageSize, true, false},
		{1, RulesPageSize, true, false},
		{2, 3, false, true},
		{3, 0, false, true},
	}
	for _, tt := range tests {
		got, err := svc.ListRules(context.Background(), shop, tt.page)
		if err != nil {
			t.Fatalf("ListRules(%d): %v", tt.page, err)
		}
		if len(got.Rules) != tt.count || got.PageInfo.HasNext != tt.hasNext || got.PageInfo.HasPrevious != tt.hasPrevious {
			t.Errorf("page %d: %d rules, info %+v", tt.page, len(got.Rules), got.PageInfo)
		}
		if got.PageInfo.Total != RulesPageSize+3 {
			t.Errorf("page %d: total = %d", tt.page, got.PageInfo.Total)
		}
	}

	first, _ := svc.ListRules(context.Background(), shop, 1)
	for i := 1; i < len(first.Rules); i++ {
		if first.Rules[i-1].CreatedAt.Before(first.Rules[i].CreatedAt) {
			t.Fatal("rules are not newest first")
		}
	}
}

func TestListRulesRejectsPageBeyondCap(t *testing.T) {
	_, _, svc := newTestService()

	if _, err := svc.ListRules(context.Background(), shop, MaxRulesPage+1); !errors.Is(err, ErrPageOutOfRange) {
		t.Fatalf("err = %v, want ErrPageOutOfRange", err)
	}
	if _, err := svc.ListRules(context.Background(), shop, MaxRulesPage); err != nil {
		t.Fatalf("last page: %v", err)
	}
}

func TestGetRule(t *testing.T) {
	_, _, svc := newTestService()
	created, err := svc.CreateRule(context.Background(), shop, validRequest())
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetRule(context.Background(), shop, created.ID.String())
	if err != nil || got.Description != "Decrease price by 25%." {
		t.Fatalf("GetRule = %+v, %v", got, err)
	}
	if _, err := svc.GetRule(context.Background(), "other.myshopify.com", created.ID.String()); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("foreign shop err = %v", err)
	}
}

// ── pricing ───────────────────────────────────────────────────────────────────

func TestAffectedProducts(t *testing.T) {
	hat := catalog.Product{
		ID:   "gid://shopify/Product/1",
		Tags: []string{"sale", "winter"},
		Variants: []catalog.Variant{
			{ID: "v1", Price: "100"},
			{ID: "v2", Price: "not-a-price"},
			{ID: "v3", Price: "40.00"},
		},
	}
	plain := catalog.Product{ID: "gid://shopify/Product/2", Variants: []catalog.Variant{{ID: "v4", Price: "10"}}}
	repo, provider, svc := newTestService(hat, plain)

	winter := newRule("A", 5, ApplyTags, "winter")
	winter.Shop = shop
	winter.CustomPriceValue = dec("25")
	summer := newRule("B", 1, ApplyTags, "summer")
	summer.Shop = shop
	off := newRule("off", 0, ApplyAll)
	off.Shop, off.Status = shop, false
	repo.rules = []PricingRule{winter, summer, off}

	page, err := svc.AffectedProducts(context.Background(), shop, catalog.FirstPageCursor)
	if err != nil {
		t.Fatalf("AffectedProducts: %v", err)
	}
	if provider.scopes[0].Kind != catalog.ScopeAll {
		t.Errorf("scope = %+v", provider.scopes[0])
	}
	if !page.PageInfo.HasNext || page.PageInfo.NextCursor != "next" {
		t.Errorf("page info = %+v", page.PageInfo)
	}
	if len(page.Products) != 2 {
		t.Fatalf("products = %d", len(page.Products))
	}

	got := page.Products[0]
	if got.ActiveRule == nil || got.ActiveRule.Name != "A" || len(got.Rules) != 1 {
		t.Fatalf("rules = %+v active = %+v", got.Rules, got.ActiveRule)
	}
	if b := got.Variants[0].Breakdown; b == nil || !b.Final.Equal(dec("75")) || got.Variants[0].SavingsLabel != "-$25.00" {
		t.Errorf("v1 = %+v", got.Variants[0])
	}
	if got.Variants[1].Error == "" || got.Variants[1].Breakdown != nil {
		t.Errorf("malformed variant = %+v", got.Variants[1])
	}
	if b := got.Variants[2].Breakdown; b == nil || !b.Final.Equal(dec("30")) {
		t.Errorf("v3 = %+v", got.Variants[2])
	}

	unmatched := page.Products[1]
	if unmatched.ActiveRule != nil || len(unmatched.Rules) != 0 {
		t.Errorf("unmatched product got rules %+v", unmatched.Rules)
	}
	if b := unmatched.Variants[0].Breakdown; b == nil || !b.Final.Equal(dec("10")) || unmatched.Variants[0].SavingsLabel != "" {
		t.Errorf("unpriced variant = %+v", unmatched.Variants[0])
	}
}

func TestAffectedProductsPropagatesCatalogErrors(t *testing.T) {
	_, provider, svc := newTestService()
	provider.err = &catalog.UpstreamError{Operation: "products", Err: errors.New("502")}

	_, err := svc.AffectedProducts(context.Background(), shop, "")
	var upstream *catalog.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
}

func TestAppliedProductsUsesRuleScope(t *testing.T) {
	product := catalog.Product{ID: "p1", Variants: []catalog.Variant{{ID: "v1", Price: "30"}}}
	repo, provider, svc := newTestService(product)

	fixed := newRule("fixed", 1, ApplyCollections, "c1", "c2")
	fixed.Shop = shop
	fixed.CustomPriceType = PriceFixed
	fixed.CustomPriceValue = dec("40")
	repo.rules = []PricingRule{fixed}

	page, err := svc.AppliedProducts(context.Background(), shop, fixed.ID.String(), "", "")
	if err != nil {
		t.Fatalf("AppliedProducts: %v", err)
	}
	if s := provider.scopes[0]; s.Kind != catalog.ScopeCollections || s.CollectionID != "c1" {
		t.Errorf("default scope = %+v", s)
	}
	v := page.Products[0].Variants[0]
	if !v.Breakdown.Savings.Equal(dec("-10")) || v.SavingsLabel != "+$10.00" {
		t.Errorf("variant = %+v", v)
	}

	if _, err := svc.AppliedProducts(context.Background(), shop, fixed.ID.String(), "", "c2"); err != nil {
		t.Fatal(err)
	}
	if s := provider.scopes[1]; s.CollectionID != "c2" {
		t.Errorf("picked scope = %+v", s)
	}

	if _, err := svc.AppliedProducts(context.Background(), shop, fixed.ID.String(), "", "c9"); !errors.Is(err, ErrCollectionNotInRule) {
		t.Errorf("foreign collection err = %v", err)
	}
	if _, err := svc.AppliedProducts(context.Background(), shop, uuid.NewString(), "", ""); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("unknown rule err = %v", err)
	}
}

func TestRuleScope(t *testing.T) {
	tests := []struct {
		rule PricingRule
		want catalog.ScopeKind
	}{
		{newRule("all", 1, ApplyAll), catalog.ScopeAll},
		{newRule("ids", 1, ApplySpecificProducts, "p1"), catalog.ScopeSpecificProducts},
		{newRule("tags", 1, ApplyTags, "winter"), catalog.ScopeTags},
		{newRule("cols", 1, ApplyCollections, "c1"), catalog.ScopeCollections},
	}
	for _, tt := range tests {
		got, err := ruleScope(tt.rule, "")
		if err != nil || got.Kind != tt.want {
			t.Errorf("%s: scope = %+v, err = %v", tt.rule.Name, got, err)
		}
	}
}
