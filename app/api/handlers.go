package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ladlehq/ladle/app/config"
	"github.com/ladlehq/ladle/app/database"
	"github.com/ladlehq/ladle/app/importer"
	"github.com/ladlehq/ladle/app/recipes"
	"github.com/ladlehq/ladle/app/remote"
	"github.com/ladlehq/ladle/app/segmenter"
	syncengine "github.com/ladlehq/ladle/app/sync"
)

const maxImportBytes = 32 << 20

func NewHandler(recipeService *recipes.Service, importService *importer.Service,
	seg *segmenter.Segmenter, engine *syncengine.Engine, remoteClient *remote.Client,
	recipeRepo *database.RecipeRepository, scheduleRepo *database.ScheduleRepository,
	dataDir, remoteURL, userAgent string) *Handler {
	return &Handler{
		recipeService: recipeService,
		importService: importService,
		segmenter:     seg,
		engine:        engine,
		remoteClient:  remoteClient,
		recipeRepo:    recipeRepo,
		scheduleRepo:  scheduleRepo,
		dataDir:       dataDir,
		remoteURL:     remoteURL,
		userAgent:     userAgent,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (h *Handler) ListRecipes(c *gin.Context) {
	list, err := h.recipeService.ListRecipes()
	if err != nil {
		slog.Error("Database error", "operation", "list_recipes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipeViews(list), "total": len(list)})
}

func (h *Handler) GetRecipe(c *gin.Context) {
	recipe, err := h.recipeService.GetRecipe(c.Param("id"))
	if err != nil {
		h.renderServiceError(c, "get_recipe", err)
		return
	}

	c.JSON(http.StatusOK, recipeView(*recipe))
}

func (h *Handler) CreateRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	recipe, err := h.recipeService.CreateRecipe(recipeInput(req))
	if err != nil {
		h.renderServiceError(c, "create_recipe", err)
		return
	}

	c.JSON(http.StatusCreated, recipeView(*recipe))
}

func (h *Handler) UpdateRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	recipe, err := h.recipeService.UpdateRecipe(c.Param("id"), recipeInput(req))
	if err != nil {
		h.renderServiceError(c, "update_recipe", err)
		return
	}

	c.JSON(http.StatusOK, recipeView(*recipe))
}

func (h *Handler) DeleteRecipe(c *gin.Context) {
	if err := h.recipeService.DeleteRecipe(c.Param("id")); err != nil {
		h.renderServiceError(c, "delete_recipe", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) BulkDeleteRecipes(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	deleted, err := h.recipeService.DeleteRecipes(req.IDs)
	if err != nil {
		h.renderServiceError(c, "bulk_delete_recipes", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "requested": len(req.IDs)})
}

func (h *Handler) GetIngredients(c *gin.Context) {
	rows, err := h.recipeService.Ingredients(c.Param("id"))
	if err != nil {
		h.renderServiceError(c, "get_ingredients", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ingredients": ingredientViews(rows)})
}

func (h *Handler) GetScaledIngredients(c *gin.Context) {
	factor, err := strconv.ParseFloat(c.DefaultQuery("factor", "1"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scale factor"})
		return
	}

	scaled, err := h.recipeService.ScaledIngredients(c.Param("id"), factor)
	if err != nil {
		h.renderServiceError(c, "get_scaled_ingredients", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"factor": factor, "ingredients": scaled})
}

func (h *Handler) GetHistory(c *gin.Context) {
	history, err := h.recipeService.History(c.Param("id"))
	if err != nil {
		h.renderServiceError(c, "get_history", err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *Handler) GetSchedule(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")

	entries, err := h.recipeService.Schedule(from, to)
	if err != nil {
		h.renderServiceError(c, "get_schedule", err)
		return
	}

	views := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		views = append(views, gin.H{
			"id":       entry.ID,
			"date":     entry.Date,
			"mealType": entry.MealType,
			"recipeId": entry.RecipeID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"entries": views, "total": len(views)})
}

func (h *Handler) AssignSlot(c *gin.Context) {
	var req assignSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	entry, replaced, err := h.recipeService.AssignSlot(c.Param("date"), c.Param("meal"), req.RecipeID)
	if err != nil {
		h.renderServiceError(c, "assign_slot", err)
		return
	}

	resp := gin.H{"id": entry.ID, "date": entry.Date, "mealType": entry.MealType, "recipeId": entry.RecipeID}
	if replaced != nil {
		resp["replacedRecipeId"] = replaced.RecipeID
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ClearSlot(c *gin.Context) {
	if err := h.recipeService.ClearSlot(c.Param("date"), c.Param("meal")); err != nil {
		h.renderServiceError(c, "clear_slot", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) CaptureText(c *gin.Context) {
	var req textImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result := h.segmenter.Run(segmenter.Input{
		Text:         req.Text,
		PostTitle:    req.PostTitle,
		PlatformHint: req.Platform,
	})

	h.renderCapture(c, result, req.DryRun)
}

func (h *Handler) CaptureHTML(c *gin.Context) {
	var req htmlImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.segmenter.RunHTML(req.HTML, req.URL, segmenter.Input{})
	if err != nil {
		slog.Error("HTML extraction failed", "url", req.URL, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Could not extract article from HTML"})
		return
	}

	h.renderCapture(c, result, req.DryRun)
}

func (h *Handler) CaptureURL(c *gin.Context) {
	var req urlImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	page, err := h.fetchPage(c, req.URL)
	if err != nil {
		slog.Error("Page fetch failed", "url", req.URL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not fetch page", "details": err.Error()})
		return
	}

	result, err := h.segmenter.RunHTML(page, req.URL, segmenter.Input{})
	if err != nil {
		slog.Error("HTML extraction failed", "url", req.URL, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Could not extract article from page"})
		return
	}

	h.renderCapture(c, result, req.DryRun)
}

// renderCapture turns a segmentation result into a stored recipe, or just
// echoes the segmentation on a dry run.
func (h *Handler) renderCapture(c *gin.Context, result segmenter.Result, dryRun bool) {
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":        "No recipe content recognized",
			"segmentation": result,
		})
		return
	}

	if dryRun {
		c.JSON(http.StatusOK, gin.H{"segmentation": result})
		return
	}

	recipe, err := h.recipeService.CreateRecipe(recipes.RecipeInput{
		Title:        result.Title,
		Ingredients:  result.Ingredients,
		Instructions: result.Instructions,
		ImageURL:     result.ImageURL,
		Tags:         result.Tags,
	})
	if err != nil {
		h.renderServiceError(c, "capture_recipe", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"recipe": recipeView(*recipe), "segmentation": result})
}

func (h *Handler) fetchPage(c *gin.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImportBytes))
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func (h *Handler) Export(c *gin.Context) {
	envelope, err := h.importService.Export()
	if err != nil {
		slog.Error("Export failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="ladle-export.json"`)
	c.JSON(http.StatusOK, envelope)
}

func (h *Handler) Import(c *gin.Context) {
	mode := c.DefaultQuery("mode", importer.ModeMerge)
	overwrite := c.Query("overwrite") == "true"

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read import body"})
		return
	}

	summary, err := h.importService.Import(data, mode, overwrite)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrInvalidMode),
			errors.Is(err, importer.ErrUnrecognizedFormat),
			errors.Is(err, importer.ErrUnsupportedVersion):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			slog.Error("Import failed", "mode", mode, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Import failed"})
		}
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetSyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Status())
}

func (h *Handler) ForceSync(c *gin.Context) {
	status := h.engine.Status()
	if status.LocalOnly {
		c.JSON(http.StatusConflict, gin.H{"error": "No household configured, running local-only"})
		return
	}

	h.engine.ForceSync()
	c.JSON(http.StatusAccepted, gin.H{"triggered": true})
}

func (h *Handler) CreateHousehold(c *gin.Context) {
	var req createHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	household, err := remote.CreateHousehold(c.Request.Context(), h.remoteURL, req.AccessToken, h.userAgent, req.Name)
	if err != nil {
		h.renderRemoteError(c, "create_household", err)
		return
	}

	h.saveHousehold(c, household, req.AccessToken)
}

func (h *Handler) JoinHousehold(c *gin.Context) {
	var req joinHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	household, err := remote.JoinHousehold(c.Request.Context(), h.remoteURL, req.AccessToken, h.userAgent, req.InviteCode)
	if err != nil {
		h.renderRemoteError(c, "join_household", err)
		return
	}

	h.saveHousehold(c, household, req.AccessToken)
}

// saveHousehold persists the sync profile. The engine binds to the
// profile at startup, so sync activates on the next run.
func (h *Handler) saveHousehold(c *gin.Context, household *remote.Household, accessToken string) {
	profile := &config.Profile{
		RemoteURL:     h.remoteURL,
		HouseholdID:   household.ID,
		HouseholdName: household.Name,
		InviteCode:    household.InviteCode,
		AccessToken:   accessToken,
	}

	if err := config.SaveProfile(config.ProfilePath(h.dataDir), profile); err != nil {
		slog.Error("Failed to save sync profile", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save sync profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"household":       household,
		"restartRequired": true,
	})
}

func (h *Handler) RegenerateInviteCode(c *gin.Context) {
	if h.remoteClient == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "No household configured, running local-only"})
		return
	}

	household, err := h.remoteClient.RegenerateInviteCode(c.Request.Context())
	if err != nil {
		h.renderRemoteError(c, "regenerate_invite_code", err)
		return
	}

	// Keep the stored profile's invite code current.
	profilePath := config.ProfilePath(h.dataDir)
	profile, err := config.LoadProfile(profilePath)
	if err == nil && profile != nil {
		profile.InviteCode = household.InviteCode
		if err := config.SaveProfile(profilePath, profile); err != nil {
			slog.Warn("Failed to update stored invite code", "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"household": household})
}

func (h *Handler) LeaveHousehold(c *gin.Context) {
	if err := config.RemoveProfile(config.ProfilePath(h.dataDir)); err != nil {
		slog.Error("Failed to remove sync profile", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove sync profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"left": true, "restartRequired": true})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if recipeCount, err := h.recipeRepo.GetRecipeCount(); err == nil {
		health["recipes"] = recipeCount
	}

	health["sync"] = h.engine.Status().State

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{}

	if recipeCount, err := h.recipeRepo.GetRecipeCount(); err == nil {
		stats["recipes"] = recipeCount
	}
	if entryCount, err := h.scheduleRepo.GetEntryCount(); err == nil {
		stats["schedule_entries"] = entryCount
	}

	status := h.engine.Status()
	stats["sync"] = map[string]interface{}{
		"state":        status.State,
		"local_only":   status.LocalOnly,
		"queue_length": status.QueueLength,
	}

	c.JSON(http.StatusOK, stats)
}

// renderServiceError maps service sentinels onto HTTP statuses.
func (h *Handler) renderServiceError(c *gin.Context, operation string, err error) {
	switch {
	case errors.Is(err, recipes.ErrRecipeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
	case errors.Is(err, recipes.ErrEmptyTitle),
		errors.Is(err, recipes.ErrInvalidScale),
		errors.Is(err, recipes.ErrInvalidDate),
		errors.Is(err, recipes.ErrInvalidRange),
		errors.Is(err, recipes.ErrInvalidMealType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error("Database error", "operation", operation, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
}

func (h *Handler) renderRemoteError(c *gin.Context, operation string, err error) {
	slog.Error("Remote store error", "operation", operation, "error", err)
	if remote.IsTransient(err) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Remote store unreachable", "details": err.Error()})
		return
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
}

func recipeInput(req recipeRequest) recipes.RecipeInput {
	return recipes.RecipeInput{
		Title:        req.Title,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		ImageURL:     req.ImageURL,
		SourceURL:    req.SourceURL,
		Tags:         req.Tags,
	}
}

func recipeView(recipe database.Recipe) gin.H {
	view := gin.H{
		"id":           recipe.ID,
		"title":        recipe.Title,
		"ingredients":  recipe.Ingredients,
		"instructions": recipe.Instructions,
		"tags":         recipe.Tags,
		"createdAt":    recipe.CreatedAt,
		"updatedAt":    recipe.UpdatedAt,
	}
	if recipe.ImageURL != "" {
		view["imageUrl"] = recipe.ImageURL
	}
	if recipe.SourceURL != "" {
		view["sourceUrl"] = recipe.SourceURL
	}
	return view
}

func recipeViews(list []database.Recipe) []gin.H {
	views := make([]gin.H, 0, len(list))
	for _, recipe := range list {
		views = append(views, recipeView(recipe))
	}
	return views
}

func ingredientViews(rows []database.RecipeIngredient) []gin.H {
	views := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		view := gin.H{
			"lineIndex": row.LineIndex,
			"name":      row.Name,
			"rawText":   row.RawText,
		}
		if row.Quantity != nil {
			view["quantity"] = *row.Quantity
		}
		if row.QuantityMax != nil {
			view["quantityMax"] = *row.QuantityMax
		}
		if row.Unit != "" {
			view["unit"] = row.Unit
		}
		views = append(views, view)
	}
	return views
}
