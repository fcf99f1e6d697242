package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	llmdomain "github.com/lexlapax/go-llms/pkg/llm/domain"
	llmprovider "github.com/lexlapax/go-llms/pkg/llm/provider"
	"github.com/shopspring/decimal"
)

const (
	flashModel = "gemini-2.5-flash"
	expModel   = "gemini-2.0-flash-exp"
)

// AIEngine wraps the generative service behind typed requests with
// deterministic fallbacks. The provider is injected at construction; a nil
// provider means every method answers from its fallback without a network
// call.
type AIEngine struct {
	provider llmdomain.Provider
	log      *log.Logger
}

func NewAIEngine(cfg *Config) *AIEngine {
	e := &AIEngine{
		log: log.New(os.Stderr, "(ai) ", log.LstdFlags),
	}
	if cfg.GeminiConfigured() {
		e.provider = llmprovider.NewGeminiProvider(cfg.GeminiAPIKey, flashModel)
		e.log.Println("Gemini client initialized successfully")
	} else {
		e.log.Println("Gemini not available, fallbacks only")
	}
	return e
}

func (e *AIEngine) Available() bool { return e.provider != nil }

// stripCodeFence removes an optional markdown fence around a JSON body.
func stripCodeFence(s string) string {
	text := strings.TrimSpace(s)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// generateJSON runs one generation and decodes the strict-JSON reply into out.
func (e *AIEngine) generateJSON(ctx context.Context, prompt, model string, temp float64, out any) error {
	text, err := e.provider.Generate(ctx, prompt,
		llmdomain.WithModel(model),
		llmdomain.WithTemperature(temp),
	)
	if err != nil {
		return err
	}
	if text == "" {
		return fmt.Errorf("empty response from model")
	}
	return json.Unmarshal([]byte(stripCodeFence(text)), out)
}

type TripBudgetRequest struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Days       int     `json:"days"`
	People     int     `json:"people"`
	BudgetGoal float64 `json:"budget_goal"`
}

type TripBudget struct {
	EstimatedCost float64           `json:"estimated_cost"`
	Breakdown     TripCostBreakdown `json:"breakdown"`
	MonthlySaving float64           `json:"monthly_saving"`
	Suggestions   []string          `json:"suggestions"`
}

type TripCostBreakdown struct {
	Transportation float64 `json:"transportation"`
	Accommodation  float64 `json:"accommodation"`
	Food           float64 `json:"food"`
	Sightseeing    float64 `json:"sightseeing"`
	Miscellaneous  float64 `json:"miscellaneous"`
}

// PredictTripBudget estimates trip cost with a breakdown and a three-month
// savings plan, falling back to per-day arithmetic when the model is
// unavailable or unusable.
func (e *AIEngine) PredictTripBudget(ctx context.Context, req TripBudgetRequest) TripBudget {
	if e.Available() {
		prompt := fmt.Sprintf(`You are a travel budget expert for Indian destinations.
Predict the trip cost for the following trip:
- From: %s
- To: %s
- Duration: %d days
- Number of people: %d
- Budget goal: ₹%.0f

Provide a detailed budget breakdown including:
1. Transportation (flights/trains/buses)
2. Accommodation per night
3. Food per day
4. Sightseeing and activities
5. Miscellaneous expenses

Also calculate:
- Total estimated cost
- Monthly savings needed (divide by 3 months)
- 3 practical suggestions to stay within budget

Return ONLY valid JSON in this exact format:
{
  "estimated_cost": number,
  "breakdown": {
    "transportation": number,
    "accommodation": number,
    "food": number,
    "sightseeing": number,
    "miscellaneous": number
  },
  "monthly_saving": number,
  "suggestions": ["suggestion1", "suggestion2", "suggestion3"]
}`, req.From, req.To, req.Days, req.People, req.BudgetGoal)

		var result TripBudget
		if err := e.generateJSON(ctx, prompt, flashModel, 0.7, &result); err == nil {
			return result
		} else {
			e.log.Println("Trip budget prediction failed, using fallback:", err.Error())
		}
	}

	days := float64(req.Days)
	people := float64(req.People)
	baseCostPerDay := 2000 * people
	transport := 1500 * people
	estimated := baseCostPerDay*days + transport

	return TripBudget{
		EstimatedCost: estimated,
		Breakdown: TripCostBreakdown{
			Transportation: transport,
			Accommodation:  days * 1200 * people,
			Food:           days * 600 * people,
			Sightseeing:    days * 400 * people,
			Miscellaneous:  days * 300 * people,
		},
		MonthlySaving: estimated / 3,
		Suggestions: []string{
			"Book accommodation 2 months in advance to save 20-30%",
			fmt.Sprintf("Travel during off-season to %s for better rates", req.To),
			fmt.Sprintf("Use public transport instead of taxis to save ₹%.0f per day", days*200),
		},
	}
}

// BudgetAdvice produces a short free-text recommendation toward a savings
// goal.
func (e *AIEngine) BudgetAdvice(ctx context.Context, income, expenses, savingsGoal decimal.Decimal) string {
	currentSavings := income.Sub(expenses)
	shortfall := savingsGoal.Sub(currentSavings)

	if e.Available() {
		prompt := fmt.Sprintf(`You are a personal finance advisor in India.
Provide practical budget advice for this situation:
- Monthly Income: ₹%s
- Current Expenses: ₹%s
- Current Savings: ₹%s
- Savings Goal: ₹%s
- Shortfall: ₹%s

Give 2-3 specific, actionable recommendations to help reach the savings goal.
Keep it concise (3-4 sentences max) and practical for Indian context.
Mention specific categories to reduce if needed (entertainment, dining out, subscriptions, etc.).`,
			income, expenses, currentSavings, savingsGoal, shortfall)

		text, err := e.provider.Generate(ctx, prompt,
			llmdomain.WithModel(flashModel),
			llmdomain.WithTemperature(0.8),
		)
		if err == nil && text != "" {
			return strings.TrimSpace(text)
		}
		if err != nil {
			e.log.Println("Advice generation failed, using fallback:", err.Error())
		}
	}

	if !shortfall.IsPositive() {
		return fmt.Sprintf("Great job! You're already saving ₹%s per month, which exceeds your goal of ₹%s. Consider investing the extra savings for long-term growth.",
			currentSavings.Round(0), savingsGoal.Round(0))
	}

	rate := decimal.Zero
	if income.IsPositive() {
		rate = currentSavings.Div(income).Mul(decimal.NewFromInt(100))
	}
	monthsToGoal := shortfall.Div(decimal.NewFromInt(1000)).Round(0)
	if !monthsToGoal.IsPositive() {
		monthsToGoal = decimal.NewFromInt(1)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "To reach your savings goal of ₹%s, you need to save an additional ₹%s per month. ",
		savingsGoal.Round(0), shortfall.Round(0))
	if rate.LessThan(decimal.NewFromInt(20)) {
		cut := decimal.Min(shortfall, expenses.Mul(decimal.NewFromFloat(0.2)))
		fmt.Fprintf(&sb, "Your current savings rate is %s%%, which is below the recommended 20%%. ", rate.Round(1))
		fmt.Fprintf(&sb, "Try reducing discretionary expenses like dining out, entertainment, or subscriptions by ₹%s per month. ", cut.Round(0))
	} else {
		fmt.Fprintf(&sb, "You're doing well with a %s%% savings rate. ", rate.Round(1))
	}
	fmt.Fprintf(&sb, "Small changes like cooking at home more often or using public transport could help you reach your goal in %s months.", monthsToGoal)
	return sb.String()
}

type BudgetInsights struct {
	Summary string   `json:"summary"`
	Tips    []string `json:"tips"`
}

// BudgetInsights asks the model for a 50/30/20 summary and tips. Returns nil
// when the service is unavailable, income is non-positive, or every retry
// fails; callers merge rule-based tips regardless.
func (e *AIEngine) BudgetInsights(ctx context.Context, income, needs, wants, savings decimal.Decimal) *BudgetInsights {
	if !e.Available() || !income.IsPositive() {
		return nil
	}

	hundred := decimal.NewFromInt(100)
	prompt := fmt.Sprintf(`You are an expert personal finance coach in India.

Budget data:
- Income: ₹%s
- Needs: ₹%s (%s%%)
- Wants: ₹%s (%s%%)
- Savings: ₹%s (%s%%)

Based on 50/30/20 rule, provide:
1. ONE short summary sentence (max 10 words)
2. 3-4 brief tips (each max 12 words). Include ₹ amounts where relevant.

Keep tips VERY concise and actionable.

JSON format:
{
  "summary": "Short encouraging sentence",
  "tips": [
    "Brief tip with ₹ amount",
    "Another brief tip",
    "Third brief tip"
  ]
}`,
		income.Round(0),
		needs.Round(0), needs.Div(income).Mul(hundred).Round(1),
		wants.Round(0), wants.Div(income).Mul(hundred).Round(1),
		savings.Round(0), savings.Div(income).Mul(hundred).Round(1))

	var insights BudgetInsights
	retry := NewRetryPolicy(2, 1*time.Second)
	err := retry.Do(ctx, func() error {
		var result BudgetInsights
		if err := e.generateJSON(ctx, prompt, flashModel, 0.4, &result); err != nil {
			return err
		}
		if result.Summary == "" || len(result.Tips) == 0 {
			return fmt.Errorf("invalid response format")
		}
		if len(result.Tips) > 5 {
			result.Tips = result.Tips[:5]
		}
		insights = result
		return nil
	})
	if err != nil {
		e.log.Println("Budget insights generation failed:", err.Error())
		return nil
	}
	return &insights
}

type ItineraryDay struct {
	Day        int      `json:"day"`
	Activities []string `json:"activities"`
}

type Itinerary struct {
	Days      []ItineraryDay `json:"itinerary"`
	Summary   string         `json:"summary"`
	BudgetTip string         `json:"budget_tip"`
}

// TravelItinerary builds a day-by-day plan, templating one when the model is
// unavailable.
func (e *AIEngine) TravelItinerary(ctx context.Context, from, to string, days int) Itinerary {
	if e.Available() {
		prompt := fmt.Sprintf(`You are a travel expert specializing in Indian destinations.
Create a detailed %d-day itinerary for a trip:
- From: %s
- To: %s
- Duration: %d days

For each day, suggest 3-4 activities including:
- Morning, afternoon, and evening activities
- Popular tourist spots
- Local experiences and food recommendations
- Estimated time for each activity

Also provide:
- A brief summary of why %s is worth visiting
- One budget-saving tip specific to this destination

Return ONLY valid JSON in this exact format:
{
  "itinerary": [
    {
      "day": 1,
      "activities": [
        "Morning: Visit famous landmark",
        "Afternoon: Explore local market",
        "Evening: Sunset at viewpoint"
      ]
    }
  ],
  "summary": "Brief description of destination highlights",
  "budget_tip": "Specific money-saving tip for this destination"
}`, days, from, to, days, to)

		var result Itinerary
		if err := e.generateJSON(ctx, prompt, expModel, 0.8, &result); err == nil {
			return result
		} else {
			e.log.Println("Travel plan failed, using fallback:", err.Error())
		}
	}

	templates := [][]string{
		{"Morning: Check-in and freshen up", "Afternoon: Visit main city attraction", "Evening: Explore local markets and try street food"},
		{"Morning: Heritage site tour", "Afternoon: Museum visit and lunch at famous restaurant", "Evening: Sunset viewpoint and photography"},
		{"Morning: Adventure activity or nature walk", "Afternoon: Shopping for local handicrafts", "Evening: Cultural show and departure preparation"},
	}

	var itinerary []ItineraryDay
	for day := 1; day <= days && day <= 3; day++ {
		itinerary = append(itinerary, ItineraryDay{Day: day, Activities: templates[day-1]})
	}
	for day := 4; day <= days; day++ {
		itinerary = append(itinerary, ItineraryDay{Day: day, Activities: []string{
			"Morning: Leisure time and local exploration",
			"Afternoon: Visit nearby attractions",
			"Evening: Relaxation and local cuisine",
		}})
	}

	return Itinerary{
		Days: itinerary,
		Summary: fmt.Sprintf("%s offers a perfect blend of culture, history, and natural beauty. Experience local traditions, visit historic landmarks, and enjoy authentic cuisine during your %d-day journey.",
			to, days),
		BudgetTip: "Book train tickets 60 days in advance for best prices, and eat at local eateries instead of tourist restaurants to save 40-50% on food costs.",
	}
}

type Accommodation struct {
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Rating float64 `json:"rating"`
	Type   string  `json:"type"`
}

// Accommodations recommends stays for a destination; static names when the
// model is down.
func (e *AIEngine) Accommodations(ctx context.Context, destination string) []Accommodation {
	if e.Available() {
		prompt := fmt.Sprintf(`You are a travel expert for India. Provide 5 real hotel/accommodation recommendations for %s.

Include a mix of:
- 1-2 budget options (₹500-1000/night)
- 2 mid-range options (₹1200-2500/night)
- 1-2 luxury/heritage options (₹2500+/night)

Return ONLY valid JSON in this exact format:
{
  "accommodations": [
    {
      "name": "Actual hotel name",
      "price": price_per_night_in_rupees,
      "rating": rating_out_of_5,
      "type": "Budget/Mid-Range/Luxury/Heritage/Business"
    }
  ]
}`, destination)

		var result struct {
			Accommodations []Accommodation `json:"accommodations"`
		}
		retry := NewRetryPolicy(3, 3*time.Second)
		err := retry.Do(ctx, func() error {
			return e.generateJSON(ctx, prompt, flashModel, 0.7, &result)
		})
		if err == nil && len(result.Accommodations) > 0 {
			return result.Accommodations
		}
		e.log.Println("All retries failed for accommodations, using fallback")
	}

	return []Accommodation{
		{Name: destination + " Budget Inn", Price: 800, Rating: 3.5, Type: "Budget"},
		{Name: destination + " Comfort Hotel", Price: 1500, Rating: 4.0, Type: "Mid-Range"},
		{Name: destination + " Luxury Resort", Price: 3500, Rating: 4.8, Type: "Luxury"},
		{Name: destination + " Heritage Palace", Price: 2200, Rating: 4.5, Type: "Heritage"},
		{Name: destination + " Business Hotel", Price: 1800, Rating: 4.2, Type: "Business"},
	}
}

type TouristSpot struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	EntryFee    float64 `json:"entry_fee"`
}

// TouristSpots lists attractions for a destination; static placeholders when
// the model is down.
func (e *AIEngine) TouristSpots(ctx context.Context, destination string) []TouristSpot {
	if e.Available() {
		prompt := fmt.Sprintf(`You are a travel expert for India. List 5-7 real tourist attractions and places to visit in %s.

Include popular landmarks, temples, forts, museums, gardens, markets, etc.

Return ONLY valid JSON in this exact format:
{
  "tourist_spots": [
    {
      "name": "Actual place name",
      "description": "Brief description (1-2 sentences)",
      "entry_fee": fee_in_rupees_or_0_if_free
    }
  ]
}`, destination)

		var result struct {
			TouristSpots []TouristSpot `json:"tourist_spots"`
		}
		retry := NewRetryPolicy(3, 3*time.Second)
		err := retry.Do(ctx, func() error {
			return e.generateJSON(ctx, prompt, flashModel, 0.7, &result)
		})
		if err == nil && len(result.TouristSpots) > 0 {
			return result.TouristSpots
		}
		e.log.Println("All retries failed for tourist spots, using fallback")
	}

	return []TouristSpot{
		{Name: destination + " Fort", Description: "Historic fort with panoramic views of the city", EntryFee: 50},
		{Name: destination + " Museum", Description: "Rich collection of local art and artifacts", EntryFee: 100},
		{Name: destination + " Lake/Garden", Description: "Scenic spot with natural beauty and relaxation", EntryFee: 30},
		{Name: destination + " Temple", Description: "Ancient temple with intricate architecture", EntryFee: 0},
		{Name: "Local Market", Description: "Traditional market with local handicrafts and food", EntryFee: 0},
	}
}

type TransportOption struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Duration string  `json:"duration"`
	Class    string  `json:"class,omitempty"`
	Operator string  `json:"operator,omitempty"`
}

type CarRoute struct {
	Distance string  `json:"distance"`
	FuelCost float64 `json:"fuel_cost"`
	Duration string  `json:"duration"`
	Toll     float64 `json:"toll"`
}

type TravelOptions struct {
	TrainOptions   []TransportOption `json:"train_options"`
	BusOptions     []TransportOption `json:"bus_options"`
	CarRoute       CarRoute          `json:"car_route"`
	TotalBudget    float64           `json:"total_budget"`
	MonthlySavings float64           `json:"monthly_savings"`
	Breakdown      TravelBreakdown   `json:"breakdown"`
}

type TravelBreakdown struct {
	Travel      float64 `json:"travel"`
	Hotel       float64 `json:"hotel"`
	Food        float64 `json:"food"`
	Sightseeing float64 `json:"sightseeing"`
}

// TravelOptions estimates train/bus/car routes plus a trip cost breakdown and
// the monthly savings plan (total divided over 3 months).
func (e *AIEngine) TravelOptions(ctx context.Context, from, to string, days int, month string) TravelOptions {
	if e.Available() {
		prompt := fmt.Sprintf(`You are a travel expert for India with real-time knowledge of transportation options.
Provide realistic travel options from %s to %s for a %d-day trip in %s.

Research and provide ACTUAL transportation options including:

1. **Train Options** (provide 2-3 real trains on this route):
   - Real train names and numbers if available
   - Realistic ticket prices based on distance and class
   - Actual travel duration
   - Class of travel (3A, 2A, Sleeper, etc.)

2. **Bus Options** (provide 2-3 real bus services):
   - Real bus operators (RedBus, VRL, etc.)
   - Realistic ticket prices
   - Actual travel duration
   - Bus type (AC Sleeper, Volvo, etc.)

3. **Car/Road Trip** (driving route):
   - Approximate distance in kilometers
   - Estimated fuel cost (assume 15 km/liter, ₹100/liter)
   - Travel duration by car
   - Estimated toll charges

4. **Trip Breakdown** (for %d days):
   - Hotel cost (per night realistic for destination)
   - Food cost per day
   - Sightseeing/activities cost per day

Calculate total budget and monthly savings (divide by 3 months).

Return ONLY valid JSON in this exact format:
{
  "train_options": [
    {
      "name": "Train name/number",
      "price": price_in_rupees,
      "duration": "Xh Ym",
      "class": "class_type"
    }
  ],
  "bus_options": [
    {
      "name": "Bus type",
      "price": price_in_rupees,
      "duration": "Xh Ym",
      "operator": "operator_name"
    }
  ],
  "car_route": {
    "distance": "X km",
    "fuel_cost": cost_in_rupees,
    "duration": "Xh Ym",
    "toll": toll_in_rupees
  },
  "total_budget": total_amount,
  "monthly_savings": monthly_amount,
  "breakdown": {
    "travel": cheapest_travel_cost,
    "hotel": total_hotel_cost,
    "food": total_food_cost,
    "sightseeing": total_sightseeing_cost
  }
}`, from, to, days, month, days)

		var result TravelOptions
		retry := NewRetryPolicy(3, 3*time.Second)
		err := retry.Do(ctx, func() error {
			return e.generateJSON(ctx, prompt, flashModel, 0.7, &result)
		})
		if err == nil {
			return result
		}
		e.log.Println("All retries failed for travel options, using fallback:", err.Error())
	}

	d := float64(days)
	trainCost := 1500 + d*200
	busCost := 1000 + d*150
	carCost := 2500 + d*400

	hotelCost := d * 1500
	foodCost := d * 800
	sightseeingCost := d * 600

	cheapest := trainCost
	if busCost < cheapest {
		cheapest = busCost
	}
	if carCost < cheapest {
		cheapest = carCost
	}
	total := cheapest + hotelCost + foodCost + sightseeingCost

	return TravelOptions{
		TrainOptions: []TransportOption{
			{Name: "Rajdhani Express", Price: trainCost, Duration: "8h 30m", Class: "3A"},
			{Name: "Shatabdi Express", Price: trainCost + 500, Duration: "7h 45m", Class: "2A"},
		},
		BusOptions: []TransportOption{
			{Name: "AC Sleeper", Price: busCost, Duration: "10h 15m", Operator: "RedBus Premium"},
			{Name: "Volvo Multi-Axle", Price: busCost + 300, Duration: "9h 30m", Operator: "VRL Travels"},
		},
		CarRoute: CarRoute{
			Distance: "450 km",
			FuelCost: carCost,
			Duration: "7h 30m",
			Toll:     400,
		},
		TotalBudget:    total,
		MonthlySavings: total / 3,
		Breakdown: TravelBreakdown{
			Travel:      cheapest,
			Hotel:       hotelCost,
			Food:        foodCost,
			Sightseeing: sightseeingCost,
		},
	}
}
