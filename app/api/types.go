package api

import (
	"net/http"

	"github.com/ladlehq/ladle/app/database"
	"github.com/ladlehq/ladle/app/importer"
	"github.com/ladlehq/ladle/app/recipes"
	"github.com/ladlehq/ladle/app/remote"
	"github.com/ladlehq/ladle/app/segmenter"
	syncengine "github.com/ladlehq/ladle/app/sync"
)

// Handler carries the services behind the HTTP surface.
type Handler struct {
	recipeService *recipes.Service
	importService *importer.Service
	segmenter     *segmenter.Segmenter
	engine        *syncengine.Engine
	remoteClient  *remote.Client

	recipeRepo   *database.RecipeRepository
	scheduleRepo *database.ScheduleRepository

	dataDir    string
	remoteURL  string
	userAgent  string
	httpClient *http.Client
}

type recipeRequest struct {
	Title        string   `json:"title" binding:"required"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	ImageURL     string   `json:"imageUrl"`
	SourceURL    string   `json:"sourceUrl"`
	Tags         []string `json:"tags"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

type assignSlotRequest struct {
	RecipeID string `json:"recipeId" binding:"required"`
}

type textImportRequest struct {
	Text      string `json:"text" binding:"required"`
	PostTitle string `json:"postTitle"`
	Platform  string `json:"platform"`
	DryRun    bool   `json:"dryRun"`
}

type htmlImportRequest struct {
	HTML   string `json:"html" binding:"required"`
	URL    string `json:"url"`
	DryRun bool   `json:"dryRun"`
}

type urlImportRequest struct {
	URL    string `json:"url" binding:"required,url"`
	DryRun bool   `json:"dryRun"`
}

type createHouseholdRequest struct {
	Name        string `json:"name" binding:"required"`
	AccessToken string `json:"accessToken" binding:"required"`
}

type joinHouseholdRequest struct {
	InviteCode  string `json:"inviteCode" binding:"required"`
	AccessToken string `json:"accessToken" binding:"required"`
}
