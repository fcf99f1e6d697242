package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	cfg := Config{Database: filepath.Join(t.TempDir(), "test.db")}
	store := NewStore(&cfg)
	t.Cleanup(store.Close)
	return store
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	store := testStore(t)

	user, err := store.CreateUser("asha", "asha@example.com", "secret123")
	assert.NoError(t, err)
	assert.NotZero(t, user.ID)

	assert.Nil(t, store.Authenticate("asha@example.com", "wrong"))
	assert.Nil(t, store.Authenticate("nobody@example.com", "secret123"))

	got := store.Authenticate("asha@example.com", "secret123")
	assert.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)

	// Second login hits the verified-credential cache.
	got = store.Authenticate("asha@example.com", "secret123")
	assert.NotNil(t, got)
}

func TestCreateUserDuplicate(t *testing.T) {
	store := testStore(t)

	_, err := store.CreateUser("asha", "asha@example.com", "secret123")
	assert.NoError(t, err)

	_, err = store.CreateUser("asha", "other@example.com", "secret123")
	assert.ErrorIs(t, err, ErrUserExists)
	_, err = store.CreateUser("other", "asha@example.com", "secret123")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestSessionLifecycle(t *testing.T) {
	store := testStore(t)
	user, err := store.CreateUser("asha", "asha@example.com", "secret123")
	assert.NoError(t, err)

	token := store.CreateSession(user.ID)
	assert.NotEmpty(t, token)

	got := store.SessionUser(token)
	assert.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)

	assert.Nil(t, store.SessionUser("bogus-token"))

	store.DeleteSession(token)
	assert.Nil(t, store.SessionUser(token))
}

func TestChangePassword(t *testing.T) {
	store := testStore(t)
	user, err := store.CreateUser("asha", "asha@example.com", "secret123")
	assert.NoError(t, err)

	assert.Error(t, store.ChangePassword(user.ID, "wrong", "newsecret"))
	assert.NoError(t, store.ChangePassword(user.ID, "secret123", "newsecret"))

	assert.Nil(t, store.Authenticate("asha@example.com", "secret123"))
	assert.NotNil(t, store.Authenticate("asha@example.com", "newsecret"))
}

func TestUpdateEmail(t *testing.T) {
	store := testStore(t)
	_, err := store.CreateUser("asha", "asha@example.com", "secret123")
	assert.NoError(t, err)
	second, err := store.CreateUser("ravi", "ravi@example.com", "secret123")
	assert.NoError(t, err)

	assert.ErrorIs(t, store.UpdateEmail(second.ID, "asha@example.com"), ErrUserExists)
	assert.NoError(t, store.UpdateEmail(second.ID, "ravi.new@example.com"))

	got, err := store.GetUser(second.ID)
	assert.NoError(t, err)
	assert.Equal(t, "ravi.new@example.com", got.Email)
}

func TestNotesCRUD(t *testing.T) {
	store := testStore(t)
	user, err := store.CreateUser("asha", "asha@example.com", "secret123")
	assert.NoError(t, err)
	other, err := store.CreateUser("ravi", "ravi@example.com", "secret123")
	assert.NoError(t, err)

	note, err := store.CreateNote(user.ID, "Packing list", "passport, charger")
	assert.NoError(t, err)
	assert.NotZero(t, note.ID)

	// Notes are scoped to their owner.
	_, err = store.GetNote(note.ID, other.ID)
	assert.Error(t, err)

	updated, err := store.UpdateNote(note.ID, user.ID, "Packing list", "passport, charger, sunscreen")
	assert.NoError(t, err)
	assert.Contains(t, updated.Content, "sunscreen")

	notes, err := store.ListNotes(user.ID, 0)
	assert.NoError(t, err)
	assert.Len(t, notes, 1)

	assert.NoError(t, store.DeleteNote(note.ID, user.ID))
	notes, err = store.ListNotes(user.ID, 0)
	assert.NoError(t, err)
	assert.Empty(t, notes)
}

func TestTravelPlansScopedToUser(t *testing.T) {
	store := testStore(t)
	user, err := store.CreateUser("asha", "asha@example.com", "secret123")
	assert.NoError(t, err)
	other, err := store.CreateUser("ravi", "ravi@example.com", "secret123")
	assert.NoError(t, err)

	plan := &TravelPlan{
		UserID:      user.ID,
		StartCity:   "Mumbai",
		Destination: "Jaipur",
		TravelDays:  4,
		TravelMonth: "November",
		TotalBudget: 25000,
	}
	assert.NoError(t, store.CreateTravelPlan(plan))
	assert.NotZero(t, plan.ID)
	assert.Equal(t, "planning", plan.Status)

	_, err = store.GetTravelPlan(plan.ID, other.ID)
	assert.Error(t, err)

	got, err := store.GetTravelPlan(plan.ID, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Jaipur", got.Destination)

	assert.Nil(t, store.LatestTravelPlan(other.ID))
	latest := store.LatestTravelPlan(user.ID)
	assert.NotNil(t, latest)
	assert.Equal(t, plan.ID, latest.ID)
}

func TestSavingsGoalUpsert(t *testing.T) {
	store := testStore(t)
	user, err := store.CreateUser("asha", "asha@example.com", "secret123")
	assert.NoError(t, err)

	goal := &SavingsGoal{
		UserID:     user.ID,
		Month:      "November",
		Year:       2026,
		GoalAmount: 10000,
		Milestones: []byte(`[{"amount": 2500}]`),
	}
	assert.NoError(t, store.UpsertSavingsGoal(goal))
	firstID := goal.ID

	goal.AchievedAmount = 4000
	assert.NoError(t, store.UpsertSavingsGoal(goal))
	assert.Equal(t, firstID, goal.ID, "same month and year updates in place")

	got, err := store.GetSavingsGoal(user.ID, "November", 2026)
	assert.NoError(t, err)
	assert.Equal(t, 4000.0, got.AchievedAmount)
	assert.JSONEq(t, `[{"amount": 2500}]`, string(got.Milestones))
}
