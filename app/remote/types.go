package remote

import "time"

// Session identifies this device against the remote store. It is passed
// explicitly into the client constructor; household scoping is derived from
// it, never from ambient state.
type Session struct {
	RemoteURL   string
	HouseholdID string
	AccessToken string
	DeviceID    string
}

// RecipePayload is the wire shape of a recipe. Responses are validated
// before use; a record failing validation is a permanent error.
type RecipePayload struct {
	ID           string     `json:"id" validate:"required"`
	Title        string     `json:"title"`
	Ingredients  []string   `json:"ingredients"`
	Instructions []string   `json:"instructions"`
	ImageURL     string     `json:"imageUrl,omitempty"`
	SourceURL    string     `json:"sourceUrl,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	LastCookedAt *time.Time `json:"lastCookedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" validate:"required"`
	UpdatedAt    time.Time  `json:"updatedAt" validate:"required"`
}

// ScheduleEntryPayload is the wire shape of a schedule entry.
type ScheduleEntryPayload struct {
	ID        string    `json:"id" validate:"required"`
	Date      string    `json:"date" validate:"required,datetime=2006-01-02"`
	MealType  string    `json:"mealType" validate:"required,oneof=lunch dinner"`
	RecipeID  string    `json:"recipeId" validate:"required"`
	CreatedAt time.Time `json:"createdAt" validate:"required"`
	UpdatedAt time.Time `json:"updatedAt" validate:"required"`
}

// Household is the sharing and authorization boundary.
type Household struct {
	ID         string `json:"id" validate:"required"`
	Name       string `json:"name"`
	InviteCode string `json:"inviteCode" validate:"required"`
}

type recipeListResponse struct {
	Recipes []RecipePayload `json:"recipes"`
}

type scheduleListResponse struct {
	Entries []ScheduleEntryPayload `json:"entries"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
