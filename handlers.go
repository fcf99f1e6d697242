package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
)

const sessionCookie = "ww_session"

type ctxKey int

const ctxUser ctxKey = 0

type server struct {
	cfg      *Config
	store    *Store
	engine   *AIEngine
	resolver *ImageResolver
	log      *log.Logger
}

func newServer(cfg *Config, store *Store, engine *AIEngine, resolver *ImageResolver) *server {
	return &server{
		cfg:      cfg,
		store:    store,
		engine:   engine,
		resolver: resolver,
		log:      log.New(os.Stderr, "(http) ", log.LstdFlags),
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", s.handleSignup)
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/logout", s.handleLogout)
			r.Get("/me", s.handleMe)
			r.Post("/profile/email", s.handleUpdateEmail)
			r.Post("/profile/password", s.handleChangePassword)

			r.Get("/dashboard", s.handleDashboard)

			r.Get("/budget", s.handleGetBudget)
			r.Post("/budget", s.handleSaveBudget)
			r.Post("/budget-advice", s.handleBudgetAdvice)
			r.Post("/predict-trip-budget", s.handlePredictTripBudget)

			r.Post("/travel-plan", s.handleTravelPlan)
			r.Get("/travel-plans", s.handleListTravelPlans)
			r.Post("/travel-options", s.handleTravelOptions)
			r.Get("/accommodation/{planID}", s.handleAccommodation)

			r.Get("/savings-milestones", s.handleGetSavingsGoal)
			r.Post("/savings-milestones", s.handleSaveSavingsGoal)

			r.Get("/notes", s.handleListNotes)
			r.Post("/notes", s.handleCreateNote)
			r.Put("/notes/{id}", s.handleUpdateNote)
			r.Delete("/notes/{id}", s.handleDeleteNote)

			r.Get("/fetch-destination-image", s.handleDestinationImages)
		})
	})
	return r
}

// writeJSON compresses every response body when the client accepts it.
func (s *server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	body := brotli.HTTPCompressor(w, r)
	defer body.Close()
	w.WriteHeader(status)
	enc := json.NewEncoder(body)
	indent := ""
	if s.cfg.PrettyJson {
		indent = "  "
	}
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		s.log.Println("Error encoding response", err.Error())
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, map[string]string{"error": msg})
}

func (s *server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil {
			s.writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		user := s.store.SessionUser(c.Value)
		if user == nil {
			s.writeError(w, r, http.StatusUnauthorized, "session expired")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUser, user)))
	})
}

func requestUser(r *http.Request) *User {
	return r.Context().Value(ctxUser).(*User)
}

func (s *server) setSession(w http.ResponseWriter, userID int64) {
	token := s.store.CreateSession(userID)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Username == "" || req.Email == "" || len(req.Password) < 6 {
		s.writeError(w, r, http.StatusBadRequest, "username, email and a password of at least 6 characters are required")
		return
	}
	user, err := s.store.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			s.writeError(w, r, http.StatusConflict, err.Error())
		} else {
			s.log.Println("Error creating user", err.Error())
			s.writeError(w, r, http.StatusInternalServerError, "could not create account")
		}
		return
	}
	s.setSession(w, user.ID)
	s.writeJSON(w, r, http.StatusCreated, user)
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	user := s.store.Authenticate(req.Email, req.Password)
	if user == nil {
		s.writeError(w, r, http.StatusUnauthorized, "invalid email or password")
		return
	}
	s.setSession(w, user.ID)
	s.writeJSON(w, r, http.StatusOK, user)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.store.DeleteSession(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, requestUser(r))
}

func (s *server) handleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Email == "" {
		s.writeError(w, r, http.StatusBadRequest, "email is required")
		return
	}
	if err := s.store.UpdateEmail(requestUser(r).ID, req.Email); err != nil {
		if errors.Is(err, ErrUserExists) {
			s.writeError(w, r, http.StatusConflict, err.Error())
		} else {
			s.writeError(w, r, http.StatusInternalServerError, "could not update email")
		}
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "email updated"})
}

func (s *server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.NewPassword) < 6 {
		s.writeError(w, r, http.StatusBadRequest, "new password must be at least 6 characters")
		return
	}
	if err := s.store.ChangePassword(requestUser(r).ID, req.CurrentPassword, req.NewPassword); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "password changed"})
}

// handleDashboard aggregates everything the landing view needs in one call:
// current and previous budget, the active travel plan with destination
// images, this month's savings goal and recent notes.
func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	now := time.Now()
	month, year := now.Format("January"), now.Year()

	out := map[string]any{"user": user}

	if budget, err := s.store.LatestBudget(user.ID, 0); err == nil {
		out["budget"] = budget
		out["savings_rate"] = budget.SavingsRate()
		if prev, err := s.store.LatestBudget(user.ID, 1); err == nil {
			out["previous_budget"] = prev
		}
	}

	if plan := s.store.LatestTravelPlan(user.ID); plan != nil {
		out["travel_plan"] = plan
		images, err := s.resolver.Resolve(r.Context(), plan.Destination+" India", 4)
		if err == nil {
			out["destination_images"] = images
		}
	}

	if goal, err := s.store.GetSavingsGoal(user.ID, month, year); err == nil {
		out["savings_goal"] = goal
	}

	if notes, err := s.store.ListNotes(user.ID, 5); err == nil {
		out["notes"] = notes
	}

	s.writeJSON(w, r, http.StatusOK, out)
}

type budgetRequest struct {
	Income             float64         `json:"income"`
	Needs              float64         `json:"needs"`
	Wants              float64         `json:"wants"`
	Savings            float64         `json:"savings"`
	Month              string          `json:"month"`
	Year               int             `json:"year"`
	NeedsSubcategories json.RawMessage `json:"needs_subcategories"`
	WantsSubcategories json.RawMessage `json:"wants_subcategories"`
}

func (s *server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	month := r.URL.Query().Get("month")
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))

	var (
		budget *Budget
		err    error
	)
	if month != "" && year > 0 {
		budget, err = s.store.GetBudget(user.ID, month, year)
	} else {
		budget, err = s.store.LatestBudget(user.ID, 0)
	}
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, "no budget found")
		return
	}
	s.writeJSON(w, r, http.StatusOK, budget)
}

func (s *server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	var req budgetRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Income <= 0 {
		s.writeError(w, r, http.StatusBadRequest, "income must be positive")
		return
	}
	if req.Month == "" || req.Year == 0 {
		now := time.Now()
		req.Month, req.Year = now.Format("January"), now.Year()
	}

	budget := &Budget{
		UserID:             user.ID,
		Income:             decimal.NewFromFloat(req.Income),
		Needs:              decimal.NewFromFloat(req.Needs),
		Wants:              decimal.NewFromFloat(req.Wants),
		Savings:            decimal.NewFromFloat(req.Savings),
		Month:              req.Month,
		Year:               req.Year,
		NeedsSubcategories: req.NeedsSubcategories,
		WantsSubcategories: req.WantsSubcategories,
	}

	insights := s.buildInsights(r.Context(), budget)
	if raw, err := json.Marshal(insights); err == nil {
		budget.AIInsights = raw
	}

	if err := s.store.UpsertBudget(budget); err != nil {
		s.log.Println("Error saving budget", err.Error())
		s.writeError(w, r, http.StatusInternalServerError, "could not save budget")
		return
	}
	budget.CreatedAt = time.Now()
	s.writeJSON(w, r, http.StatusOK, budget)
}

// buildInsights merges model-generated insights with rule-based tips so the
// response always carries advice even when the generative service is down.
func (s *server) buildInsights(ctx context.Context, b *Budget) BudgetInsights {
	tips := ruleBasedBudgetTips(b.Income, b.Needs, b.Wants, b.Savings)

	generated := s.engine.BudgetInsights(ctx, b.Income, b.Needs, b.Wants, b.Savings)
	if generated == nil {
		summary := "Your budget is saved. Review the tips below."
		if b.SavingsRate().GreaterThanOrEqual(decimal.NewFromInt(20)) {
			summary = "Solid savings habit, keep it up!"
		}
		return BudgetInsights{Summary: summary, Tips: tips}
	}

	generated.Tips = append(generated.Tips, tips...)
	if len(generated.Tips) > 5 {
		generated.Tips = generated.Tips[:5]
	}
	return *generated
}

func (s *server) handleBudgetAdvice(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	var req struct {
		SavingsGoal float64 `json:"savings_goal"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	budget, err := s.store.LatestBudget(user.ID, 0)
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, "set up a budget first")
		return
	}
	advice := s.engine.BudgetAdvice(r.Context(), budget.Income, budget.Expenses(),
		decimal.NewFromFloat(req.SavingsGoal))
	s.writeJSON(w, r, http.StatusOK, map[string]string{"advice": advice})
}

func (s *server) handlePredictTripBudget(w http.ResponseWriter, r *http.Request) {
	var req TripBudgetRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.To == "" || req.Days < 1 || req.People < 1 {
		s.writeError(w, r, http.StatusBadRequest, "destination, days and people are required")
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.engine.PredictTripBudget(r.Context(), req))
}

func (s *server) handleTravelPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
		Days int    `json:"days"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.To == "" || req.Days < 1 {
		s.writeError(w, r, http.StatusBadRequest, "destination and days are required")
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.engine.TravelItinerary(r.Context(), req.From, req.To, req.Days))
}

func (s *server) handleListTravelPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.store.ListTravelPlans(requestUser(r).ID)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "could not list travel plans")
		return
	}
	if plans == nil {
		plans = []*TravelPlan{}
	}
	s.writeJSON(w, r, http.StatusOK, plans)
}

// handleTravelOptions estimates the trip, persists it as a plan and returns
// both together.
func (s *server) handleTravelOptions(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	var req struct {
		From  string `json:"from"`
		To    string `json:"to"`
		Days  int    `json:"days"`
		Month string `json:"month"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.From == "" || req.To == "" || req.Days < 1 {
		s.writeError(w, r, http.StatusBadRequest, "from, to and days are required")
		return
	}
	if req.Month == "" {
		req.Month = time.Now().Format("January")
	}

	options := s.engine.TravelOptions(r.Context(), req.From, req.To, req.Days, req.Month)

	plan := &TravelPlan{
		UserID:         user.ID,
		StartCity:      req.From,
		Destination:    req.To,
		TravelDays:     req.Days,
		TravelMonth:    req.Month,
		TotalBudget:    options.TotalBudget,
		MonthlySavings: options.MonthlySavings,
	}
	if err := s.store.CreateTravelPlan(plan); err != nil {
		s.log.Println("Error saving travel plan", err.Error())
		s.writeError(w, r, http.StatusInternalServerError, "could not save travel plan")
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"plan":    plan,
		"options": options,
	})
}

// handleAccommodation returns stays and attractions for a saved plan's
// destination, with one image per attraction.
func (s *server) handleAccommodation(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	planID, err := strconv.ParseInt(chi.URLParam(r, "planID"), 10, 64)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid plan id")
		return
	}
	plan, err := s.store.GetTravelPlan(planID, user.ID)
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, "travel plan not found")
		return
	}

	accommodations := s.engine.Accommodations(r.Context(), plan.Destination)
	spots := s.engine.TouristSpots(r.Context(), plan.Destination)

	type spotWithImage struct {
		TouristSpot
		Image *ResolvedImage `json:"image,omitempty"`
	}
	decorated := make([]spotWithImage, len(spots))
	for i, spot := range spots {
		decorated[i] = spotWithImage{TouristSpot: spot}
		images, err := s.resolver.Resolve(r.Context(), spot.Name+" "+plan.Destination, 1)
		if err == nil && len(images) > 0 {
			decorated[i].Image = &images[0]
		}
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"plan":           plan,
		"accommodations": accommodations,
		"tourist_spots":  decorated,
	})
}

func (s *server) handleGetSavingsGoal(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	month := r.URL.Query().Get("month")
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	if month == "" || year == 0 {
		now := time.Now()
		month, year = now.Format("January"), now.Year()
	}
	goal, err := s.store.GetSavingsGoal(user.ID, month, year)
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, "no savings goal for this month")
		return
	}
	s.writeJSON(w, r, http.StatusOK, goal)
}

func (s *server) handleSaveSavingsGoal(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	var req struct {
		Month          string          `json:"month"`
		Year           int             `json:"year"`
		GoalAmount     float64         `json:"goal_amount"`
		AchievedAmount float64         `json:"achieved_amount"`
		Milestones     json.RawMessage `json:"milestones"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Month == "" || req.Year == 0 {
		now := time.Now()
		req.Month, req.Year = now.Format("January"), now.Year()
	}
	if req.Milestones == nil {
		req.Milestones = json.RawMessage("[]")
	}
	goal := &SavingsGoal{
		UserID:         user.ID,
		Month:          req.Month,
		Year:           req.Year,
		GoalAmount:     req.GoalAmount,
		AchievedAmount: req.AchievedAmount,
		Milestones:     req.Milestones,
	}
	if err := s.store.UpsertSavingsGoal(goal); err != nil {
		s.log.Println("Error saving savings goal", err.Error())
		s.writeError(w, r, http.StatusInternalServerError, "could not save savings goal")
		return
	}
	s.writeJSON(w, r, http.StatusOK, goal)
}

func (s *server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	notes, err := s.store.ListNotes(requestUser(r).ID, limit)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "could not list notes")
		return
	}
	if notes == nil {
		notes = []*Note{}
	}
	s.writeJSON(w, r, http.StatusOK, notes)
}

func (s *server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Title == "" {
		s.writeError(w, r, http.StatusBadRequest, "title is required")
		return
	}
	note, err := s.store.CreateNote(requestUser(r).ID, req.Title, req.Content)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "could not create note")
		return
	}
	s.writeJSON(w, r, http.StatusCreated, note)
}

func (s *server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid note id")
		return
	}
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	note, err := s.store.UpdateNote(id, requestUser(r).ID, req.Title, req.Content)
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, "note not found")
		return
	}
	s.writeJSON(w, r, http.StatusOK, note)
}

func (s *server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid note id")
		return
	}
	if err := s.store.DeleteNote(id, requestUser(r).ID); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "could not delete note")
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleDestinationImages exposes the image pipeline directly.
func (s *server) handleDestinationImages(w http.ResponseWriter, r *http.Request) {
	destination := r.URL.Query().Get("destination")
	if destination == "" {
		s.writeError(w, r, http.StatusBadRequest, "query parameter destination is required")
		return
	}
	count := 4
	if n, err := strconv.Atoi(r.URL.Query().Get("count")); err == nil && n > 0 {
		count = n
	}
	images, err := s.resolver.Resolve(r.Context(), destination, count)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"destination": destination,
		"images":      images,
	})
}
