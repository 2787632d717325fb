package pricing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const ruleColumns = `id, shop, name, priority, status, application_type,
	custom_price_type, custom_price_value, created_at, updated_at`

// ── Rules ─────────────────────────────────────────────────────────────────────

func (r *postgresRepo) CreateRule(ctx context.Context, rule *PricingRule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rule tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO pricing_rules
		  (id, shop, name, priority, status, application_type, custom_price_type, custom_price_value)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		rule.ID, rule.Shop, rule.Name, rule.Priority, rule.Status,
		rule.ApplicationType, rule.CustomPriceType, rule.CustomPriceValue,
	).Scan(&rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert pricing rule: %w", err)
	}

	stmt := `INSERT INTO rule_applications (id, pricing_rule_id, entity_type, entity_id, position) VALUES ($1,$2,$3,$4,$5)`
	for i, a := range rule.RuleApplications {
		if _, err := tx.ExecContext(ctx, stmt, a.ID, rule.ID, a.EntityType, a.EntityID, i); err != nil {
			return fmt.Errorf("insert rule application: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pricing rule: %w", err)
	}
	return nil
}

func (r *postgresRepo) ListEnabledRules(ctx context.Context, shop string) ([]PricingRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ruleColumns+`
		FROM pricing_rules WHERE shop=$1 AND status=TRUE
		ORDER BY priority ASC, created_at DESC`, shop)
	if err != nil {
		return nil, err
	}
	rules, err := scanRules(rows)
	if err != nil {
		return nil, err
	}
	return rules, r.attachApplications(ctx, rules)
}

func (r *postgresRepo) ListRulesPage(ctx context.Context, shop string, page, limit int) ([]PricingRule, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pricing_rules WHERE shop=$1`, shop).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ruleColumns+`
		FROM pricing_rules WHERE shop=$1
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3`, shop, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	rules, err := scanRules(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachApplications(ctx, rules); err != nil {
		return nil, 0, err
	}
	return rules, total, nil
}

func (r *postgresRepo) GetRuleByID(ctx context.Context, shop, id string) (*PricingRule, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrRuleNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+ruleColumns+`
		FROM pricing_rules WHERE id=$1 AND shop=$2`, uid, shop)
	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRuleNotFound
	}
	if err != nil {
		return nil, err
	}
	rules := []PricingRule{*rule}
	if err := r.attachApplications(ctx, rules); err != nil {
		return nil, err
	}
	return &rules[0], nil
}

// ── Applications ──────────────────────────────────────────────────────────────

// attachApplications loads the applications of every rule in one query.
func (r *postgresRepo) attachApplications(ctx context.Context, rules []PricingRule) error {
	if len(rules) == 0 {
		return nil
	}
	ids := make([]string, len(rules))
	index := make(map[uuid.UUID]int, len(rules))
	for i, rule := range rules {
		ids[i] = rule.ID.String()
		index[rule.ID] = i
		rules[i].RuleApplications = []RuleApplication{}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pricing_rule_id, entity_type, entity_id
		FROM rule_applications WHERE pricing_rule_id = ANY($1::uuid[])
		ORDER BY pricing_rule_id, position ASC`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a RuleApplication
		if err := rows.Scan(&a.ID, &a.PricingRuleID, &a.EntityType, &a.EntityID); err != nil {
			return err
		}
		if i, ok := index[a.PricingRuleID]; ok {
			rules[i].RuleApplications = append(rules[i].RuleApplications, a)
		}
	}
	return rows.Err()
}

// ── scanners ──────────────────────────────────────────────────────────────────

type ruleScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row ruleScanner) (*PricingRule, error) {
	rule := &PricingRule{}
	err := row.Scan(&rule.ID, &rule.Shop, &rule.Name, &rule.Priority, &rule.Status,
		&rule.ApplicationType, &rule.CustomPriceType, &rule.CustomPriceValue,
		&rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rule, nil
}

func scanRules(rows *sql.Rows) ([]PricingRule, error) {
	defer rows.Close()
	rules := []PricingRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}
