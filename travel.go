package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type TravelPlan struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"-"`
	StartCity      string    `json:"start_city"`
	Destination    string    `json:"destination"`
	TravelDays     int       `json:"travel_days"`
	TravelMonth    string    `json:"travel_month"`
	TotalBudget    float64   `json:"total_budget"`
	MonthlySavings float64   `json:"monthly_savings"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func (store *Store) CreateTravelPlan(plan *TravelPlan) error {
	res, err := store.db.Exec(
		`INSERT INTO travel_plans (user_id, start_city, destination, travel_days,
		                           travel_month, total_budget, monthly_savings)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		plan.UserID, plan.StartCity, plan.Destination, plan.TravelDays,
		plan.TravelMonth, plan.TotalBudget, plan.MonthlySavings,
	)
	if err != nil {
		return err
	}
	plan.ID, _ = res.LastInsertId()
	plan.Status = "planning"
	return nil
}

const travelPlanColumns = `id, user_id, start_city, destination, travel_days,
	travel_month, total_budget, monthly_savings, status, created_at`

func scanTravelPlan(row interface{ Scan(...any) error }) (*TravelPlan, error) {
	var (
		plan            TravelPlan
		budget, savings sql.NullFloat64
	)
	err := row.Scan(&plan.ID, &plan.UserID, &plan.StartCity, &plan.Destination,
		&plan.TravelDays, &plan.TravelMonth, &budget, &savings, &plan.Status, &plan.CreatedAt)
	if err != nil {
		return nil, err
	}
	plan.TotalBudget = budget.Float64
	plan.MonthlySavings = savings.Float64
	return &plan, nil
}

// GetTravelPlan fetches a plan scoped to its owning user.
func (store *Store) GetTravelPlan(id, userID int64) (*TravelPlan, error) {
	row := store.db.QueryRow(
		`SELECT `+travelPlanColumns+` FROM travel_plans WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	return scanTravelPlan(row)
}

// LatestTravelPlan returns the user's most recently created plan, or nil.
func (store *Store) LatestTravelPlan(userID int64) *TravelPlan {
	row := store.db.QueryRow(
		`SELECT `+travelPlanColumns+` FROM travel_plans WHERE user_id = ?
		 ORDER BY created_at DESC LIMIT 1`,
		userID,
	)
	plan, err := scanTravelPlan(row)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			store.log.Println(err.Error())
		}
		return nil
	}
	return plan
}

func (store *Store) ListTravelPlans(userID int64) ([]*TravelPlan, error) {
	rows, err := store.db.Query(
		`SELECT `+travelPlanColumns+` FROM travel_plans WHERE user_id = ?
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*TravelPlan
	for rows.Next() {
		plan, err := scanTravelPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

type SavingsGoal struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"-"`
	Month          string          `json:"month"`
	Year           int             `json:"year"`
	GoalAmount     float64         `json:"goal_amount"`
	AchievedAmount float64         `json:"achieved_amount"`
	Milestones     json.RawMessage `json:"milestones"`
}

// UpsertSavingsGoal writes the single goal row for (user, month, year).
func (store *Store) UpsertSavingsGoal(goal *SavingsGoal) error {
	var existing int64
	err := store.db.QueryRow(
		"SELECT id FROM savings_goals WHERE user_id = ? AND month = ? AND year = ?",
		goal.UserID, goal.Month, goal.Year,
	).Scan(&existing)

	switch {
	case err == nil:
		goal.ID = existing
		_, err = store.db.Exec(
			`UPDATE savings_goals SET milestones = ?, goal_amount = ?, achieved_amount = ?
			 WHERE id = ?`,
			string(goal.Milestones), goal.GoalAmount, goal.AchievedAmount, existing,
		)
		return err
	case errors.Is(err, sql.ErrNoRows):
		res, err := store.db.Exec(
			`INSERT INTO savings_goals (user_id, month, year, goal_amount, achieved_amount, milestones)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			goal.UserID, goal.Month, goal.Year, goal.GoalAmount, goal.AchievedAmount,
			string(goal.Milestones),
		)
		if err != nil {
			return err
		}
		goal.ID, _ = res.LastInsertId()
		return nil
	default:
		return err
	}
}

func (store *Store) GetSavingsGoal(userID int64, month string, year int) (*SavingsGoal, error) {
	var (
		goal       SavingsGoal
		milestones sql.NullString
	)
	err := store.db.QueryRow(
		`SELECT id, user_id, month, year, goal_amount, achieved_amount, milestones
		 FROM savings_goals WHERE user_id = ? AND month = ? AND year = ?`,
		userID, month, year,
	).Scan(&goal.ID, &goal.UserID, &goal.Month, &goal.Year,
		&goal.GoalAmount, &goal.AchievedAmount, &milestones)
	if err != nil {
		return nil, err
	}
	if milestones.Valid && milestones.String != "" {
		goal.Milestones = json.RawMessage(milestones.String)
	} else {
		goal.Milestones = json.RawMessage("[]")
	}
	return &goal, nil
}
