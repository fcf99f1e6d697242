package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Budget struct {
	ID                 int64           `json:"id"`
	UserID             int64           `json:"-"`
	Income             decimal.Decimal `json:"income"`
	Needs              decimal.Decimal `json:"needs"`
	Wants              decimal.Decimal `json:"wants"`
	Savings            decimal.Decimal `json:"savings"`
	Month              string          `json:"month"`
	Year               int             `json:"year"`
	AIInsights         json.RawMessage `json:"insights,omitempty"`
	NeedsSubcategories json.RawMessage `json:"needs_subcategories,omitempty"`
	WantsSubcategories json.RawMessage `json:"wants_subcategories,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// SavingsRate is savings as a percentage of income, zero when income is zero.
func (b *Budget) SavingsRate() decimal.Decimal {
	if b.Income.IsZero() {
		return decimal.Zero
	}
	return b.Savings.Div(b.Income).Mul(decimal.NewFromInt(100))
}

func (b *Budget) Expenses() decimal.Decimal {
	return b.Needs.Add(b.Wants)
}

// UpsertBudget replaces the budget for (user, month, year) or inserts a new
// one.
func (store *Store) UpsertBudget(b *Budget) error {
	var existing int64
	err := store.db.QueryRow(
		"SELECT id FROM budgets WHERE user_id = ? AND month = ? AND year = ?",
		b.UserID, b.Month, b.Year,
	).Scan(&existing)

	income, _ := b.Income.Float64()
	needs, _ := b.Needs.Float64()
	wants, _ := b.Wants.Float64()
	savings, _ := b.Savings.Float64()

	switch {
	case err == nil:
		b.ID = existing
		_, err = store.db.Exec(
			`UPDATE budgets SET income = ?, needs = ?, wants = ?, savings = ?, ai_insights = ?,
			        needs_subcategories = ?, wants_subcategories = ?
			 WHERE id = ?`,
			income, needs, wants, savings, string(b.AIInsights),
			string(b.NeedsSubcategories), string(b.WantsSubcategories), existing,
		)
		return err
	case errors.Is(err, sql.ErrNoRows):
		res, err := store.db.Exec(
			`INSERT INTO budgets (user_id, income, needs, wants, savings, month, year, ai_insights,
			                      needs_subcategories, wants_subcategories)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.UserID, income, needs, wants, savings, b.Month, b.Year, string(b.AIInsights),
			string(b.NeedsSubcategories), string(b.WantsSubcategories),
		)
		if err != nil {
			return err
		}
		b.ID, _ = res.LastInsertId()
		return nil
	default:
		return err
	}
}

func scanBudget(row interface{ Scan(...any) error }) (*Budget, error) {
	var (
		b                             Budget
		income, needs, wants, savings float64
		insights, needsSub, wantsSub  sql.NullString
	)
	err := row.Scan(&b.ID, &b.UserID, &income, &needs, &wants, &savings,
		&b.Month, &b.Year, &insights, &needsSub, &wantsSub, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.Income = decimal.NewFromFloat(income)
	b.Needs = decimal.NewFromFloat(needs)
	b.Wants = decimal.NewFromFloat(wants)
	b.Savings = decimal.NewFromFloat(savings)
	if insights.Valid && insights.String != "" {
		b.AIInsights = json.RawMessage(insights.String)
	}
	if needsSub.Valid && needsSub.String != "" {
		b.NeedsSubcategories = json.RawMessage(needsSub.String)
	}
	if wantsSub.Valid && wantsSub.String != "" {
		b.WantsSubcategories = json.RawMessage(wantsSub.String)
	}
	return &b, nil
}

const budgetColumns = `id, user_id, income, needs, wants, savings, month, year,
	ai_insights, needs_subcategories, wants_subcategories, created_at`

func (store *Store) GetBudget(userID int64, month string, year int) (*Budget, error) {
	row := store.db.QueryRow(
		`SELECT `+budgetColumns+` FROM budgets
		 WHERE user_id = ? AND month = ? AND year = ?
		 ORDER BY created_at DESC LIMIT 1`,
		userID, month, year,
	)
	return scanBudget(row)
}

// LatestBudget returns the most recent budget, offset rows back; offset 0 is
// the current one, offset 1 the previous.
func (store *Store) LatestBudget(userID int64, offset int) (*Budget, error) {
	row := store.db.QueryRow(
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ?
		 ORDER BY created_at DESC LIMIT 1 OFFSET ?`,
		userID, offset,
	)
	return scanBudget(row)
}

func (store *Store) RecentBudgets(userID int64, limit int) ([]*Budget, error) {
	rows, err := store.db.Query(
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []*Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// ruleBasedBudgetTips derives deterministic advice from the 50/30/20 rule.
// These tips are merged behind AI-generated ones when the generative service
// is available, and stand alone when it is not.
func ruleBasedBudgetTips(income, needs, wants, savings decimal.Decimal) []string {
	var tips []string
	hundred := decimal.NewFromInt(100)

	if income.IsZero() {
		return tips
	}

	wantsCap := income.Mul(decimal.NewFromFloat(0.3))
	if wants.GreaterThan(wantsCap) {
		potential := wants.Sub(wantsCap)
		gain := potential.Div(income).Mul(hundred)
		tips = append(tips, fmt.Sprintf(
			"Consider reducing wants by ₹%s to boost savings by %s%%",
			potential.Round(0), gain.Round(1)))
	}

	rate := savings.Div(income).Mul(hundred)
	if rate.LessThan(decimal.NewFromInt(20)) {
		tips = append(tips, "Try to save at least 20% of your income for a healthy financial future")
	} else if rate.GreaterThanOrEqual(decimal.NewFromInt(30)) {
		tips = append(tips, "Excellent savings rate! You're on track for strong financial health")
	}

	if needs.GreaterThan(income.Mul(decimal.NewFromFloat(0.5))) {
		tips = append(tips, "Your needs are high. Look for ways to reduce fixed expenses")
	}
	return tips
}
