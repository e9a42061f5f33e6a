package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/bubblegut/internal/middleware"
)

// RegisterRoutes mounts the API on app
func RegisterRoutes(app *fiber.App, h *Handler, settings *SettingsHandler) {
	cfg := h.cfg

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Email verification middleware for write operations
	emailVerified := middleware.EmailVerifiedRequiredFunc(h.CreateEmailVerificationChecker())
	authRequired := middleware.AuthRequired(cfg)

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Get("/me", authRequired, h.GetCurrentUser)
	auth.Post("/refresh", authRequired, h.RefreshToken)

	// Profile routes (authenticated)
	profile := api.Group("/profile", authRequired)
	profile.Get("/", h.GetProfile)
	profile.Put("/", h.UpdateProfile)

	// Ingredient parsing (public, stateless)
	api.Post("/ingredients/parse", h.ParseIngredients)

	// Tags (public)
	api.Get("/tags", h.ListTags)

	// Recipe routes (public read, authenticated write)
	recipes := api.Group("/recipes")
	recipes.Get("/", h.ListRecipes)
	recipes.Get("/drafts", authRequired, h.ListMyDrafts)
	recipes.Get("/:id", middleware.AuthOptional(cfg), h.GetRecipe)
	recipes.Get("/:id/ingredients", middleware.AuthOptional(cfg), h.ListIngredients)
	recipes.Post("/", authRequired, emailVerified, h.CreateRecipe)
	recipes.Put("/:id", authRequired, emailVerified, h.UpdateRecipe)
	recipes.Delete("/:id", authRequired, h.DeleteRecipe)
	recipes.Get("/:id/review", authRequired, h.ReviewIngredients)
	recipes.Put("/:id/ingredients", authRequired, emailVerified, h.SaveIngredients)
	recipes.Post("/:id/publish", authRequired, emailVerified, h.PublishRecipe)
	recipes.Put("/:id/tags", authRequired, emailVerified, h.SetRecipeTags)
	recipes.Post("/:id/favorite", authRequired, h.AddFavorite)
	recipes.Delete("/:id/favorite", authRequired, h.RemoveFavorite)

	// Recipe card routes, only when object storage is available
	if h.ScanningEnabled() {
		recipes.Post("/:id/scan", authRequired, emailVerified, h.ScanRecipeCard)
		recipes.Post("/:id/rescan", authRequired, h.RescanRecipeCard)
		recipes.Get("/:id/image", middleware.AuthOptional(cfg), h.GetRecipeImage)
	}

	// Favorites (authenticated)
	api.Get("/favorites", authRequired, h.ListFavorites)

	// Forum routes (authenticated)
	forum := api.Group("/forum", authRequired)
	forum.Get("/posts", h.ListPosts)
	forum.Post("/posts", emailVerified, h.CreatePost)
	forum.Get("/posts/:id", h.GetPost)
	forum.Post("/posts/:id/comments", emailVerified, h.CreateComment)

	// Admin routes (admin only)
	admin := api.Group("/admin", authRequired, middleware.AdminRequired())
	admin.Get("/users", h.AdminListUsers)
	admin.Put("/users/:id/role", h.AdminSetRole)
	admin.Put("/users/:id/display-name", h.AdminSetDisplayName)
	admin.Put("/users/:id/verify", h.AdminSetVerified)
	admin.Get("/stats", h.AdminGetStats)

	// Admin settings routes
	admin.Get("/settings", settings.GetAllSettings)
	admin.Put("/settings/storage", settings.UpdateStorageSettings)
	admin.Get("/settings/:category", settings.GetSettingsByCategory)
	admin.Put("/settings/:category", settings.UpdateSettings)
}
