package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/foxxcyber/bubblegut/internal/config"
	"github.com/foxxcyber/bubblegut/internal/database"
	"github.com/foxxcyber/bubblegut/internal/middleware"
	"github.com/foxxcyber/bubblegut/internal/models"
	"github.com/foxxcyber/bubblegut/internal/services"
)

// fakeStore implements the handful of Store methods the tests reach.
// Anything else panics through the nil embedded interface.
type fakeStore struct {
	Store

	users           map[int]*models.User
	recipes         map[int]*models.Recipe
	tags            map[int]models.Tag
	favorites       map[int][]int
	requireVerified bool

	savedRows     []models.ParsedIngredient
	published     bool
	listParams    models.RecipeListParams
	commentErr    error
	displayNameFn func(id int, name *string) (*models.User, error)
	roleChanges   []models.Role
	settings      map[string]string
	updates       []database.RecipeFields
	appendErr     error
	appended      []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   map[int]*models.User{},
		recipes: map[int]*models.Recipe{},
		tags:    map[int]models.Tag{
			1: {ID: 1, Name: "low-fodmap"},
			2: {ID: 2, Name: "vegan"},
		},
		favorites: map[int][]int{},
		settings:  map[string]string{
			"require_email_verify": "false",
			"s3_enabled":           "false",
			"s3_endpoint":          "",
			"s3_access_key":        "old-access",
			"s3_secret_key":        "old-secret",
			"s3_bucket":            "recipe-cards",
			"s3_region":            "garage",
			"s3_use_ssl":           "false",
		},
	}
}

func (f *fakeStore) GetSettingBool(ctx context.Context, key string, defaultValue bool, encryptionKey []byte) bool {
	if key == "require_email_verify" {
		return f.requireVerified
	}
	return defaultValue
}

func (f *fakeStore) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, database.ErrUserNotFound
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, database.ErrUserNotFound
}

func (f *fakeStore) UpdateUserLastLogin(ctx context.Context, id int) error {
	return nil
}

func (f *fakeStore) CreateUser(ctx context.Context, email, passwordHash string, displayName *string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return nil, database.ErrEmailExists
		}
	}
	u := &models.User{
		ID:           len(f.users) + 1,
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		Role:         models.RoleUser,
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) SetUserDisplayName(ctx context.Context, id int, displayName *string) (*models.User, error) {
	if f.displayNameFn != nil {
		return f.displayNameFn(id, displayName)
	}
	u, ok := f.users[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	u.DisplayName = displayName
	return u, nil
}

func (f *fakeStore) SetUserRole(ctx context.Context, id int, role models.Role) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	f.roleChanges = append(f.roleChanges, role)
	u.Role = role
	return u, nil
}

func (f *fakeStore) GetVisibleRecipe(ctx context.Context, id, viewerID int) (*models.Recipe, error) {
	r, ok := f.recipes[id]
	if !ok || !r.IsVisibleTo(viewerID) {
		return nil, database.ErrRecipeNotFound
	}
	return r, nil
}

// lockOwned mirrors the repository's load-and-check step for writes
func (f *fakeStore) lockOwned(recipeID, userID int) (*models.Recipe, error) {
	r, ok := f.recipes[recipeID]
	if !ok {
		return nil, database.ErrRecipeNotFound
	}
	if err := database.CheckRecipeOwner(r, userID); err != nil {
		return nil, err
	}
	return r, nil
}

func (f *fakeStore) GetRecipeDetail(ctx context.Context, id, viewerID int) (*models.RecipeDetail, error) {
	r, err := f.GetVisibleRecipe(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	detail := &models.RecipeDetail{Recipe: *r, Tags: []models.Tag{}}
	for _, fav := range f.favorites[viewerID] {
		if fav == id {
			detail.IsFavorite = true
		}
	}
	return detail, nil
}

func (f *fakeStore) UpdateRecipe(ctx context.Context, recipeID, userID int, fields database.RecipeFields) (*models.Recipe, error) {
	r, err := f.lockOwned(recipeID, userID)
	if err != nil {
		return nil, err
	}
	f.updates = append(f.updates, fields)
	if fields.Title != nil {
		r.Title = *fields.Title
	}
	if fields.Ingredients != nil {
		r.Ingredients = *fields.Ingredients
	}
	if fields.Instructions != nil {
		r.Instructions = *fields.Instructions
	}
	if fields.ServingsSet {
		r.Servings = fields.Servings
	}
	r.Status = models.RecipeStatusDraft
	r.IsPublished = false
	return r, nil
}

func (f *fakeStore) AppendRecipeIngredients(ctx context.Context, recipeID, userID int, text string, imageKey *string) (*models.Recipe, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	r, err := f.lockOwned(recipeID, userID)
	if err != nil {
		return nil, err
	}
	f.appended = append(f.appended, text)
	r.ImageKey = imageKey
	r.Status = models.RecipeStatusDraft
	r.IsPublished = false
	return r, nil
}

func (f *fakeStore) DeleteRecipe(ctx context.Context, recipeID, userID int, isModerator bool) error {
	r, ok := f.recipes[recipeID]
	if !ok {
		return database.ErrRecipeNotFound
	}
	if err := database.CheckRecipeDelete(r, userID, isModerator); err != nil {
		return err
	}
	delete(f.recipes, recipeID)
	return nil
}

func (f *fakeStore) SetRecipeTags(ctx context.Context, recipeID, userID int, tagIDs []int) ([]models.Tag, error) {
	if _, err := f.lockOwned(recipeID, userID); err != nil {
		return nil, err
	}
	tags := []models.Tag{}
	for _, id := range tagIDs {
		tag, ok := f.tags[id]
		if !ok {
			return nil, database.ErrUnknownTag
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (f *fakeStore) AddFavorite(ctx context.Context, userID, recipeID int) error {
	r, ok := f.recipes[recipeID]
	if !ok {
		return database.ErrRecipeNotFound
	}
	if err := database.CheckFavoritable(r); err != nil {
		return err
	}
	for _, fav := range f.favorites[userID] {
		if fav == recipeID {
			return nil
		}
	}
	f.favorites[userID] = append(f.favorites[userID], recipeID)
	return nil
}

func (f *fakeStore) ListPublishedRecipes(ctx context.Context, params models.RecipeListParams) ([]models.RecipeSummary, error) {
	f.listParams = params
	return []models.RecipeSummary{}, nil
}

func (f *fakeStore) SaveRecipeIngredients(ctx context.Context, recipeID, userID int, rows []models.ParsedIngredient) error {
	if _, err := f.lockOwned(recipeID, userID); err != nil {
		return err
	}
	f.savedRows = rows
	return nil
}

func (f *fakeStore) PublishRecipe(ctx context.Context, recipeID, userID int, rows []models.ParsedIngredient) (*models.Recipe, error) {
	r, err := f.lockOwned(recipeID, userID)
	if err != nil {
		return nil, err
	}
	f.published = true
	f.savedRows = rows
	r.Status = models.RecipeStatusPublished
	r.IsPublished = true
	return r, nil
}

func (f *fakeStore) CreateForumComment(ctx context.Context, postID, userID int, body string) (*models.ForumComment, error) {
	if f.commentErr != nil {
		return nil, f.commentErr
	}
	return &models.ForumComment{ID: 1, PostID: postID, Body: body}, nil
}

func (f *fakeStore) SetSettings(ctx context.Context, settings map[string]string, encryptionKey []byte) error {
	for key := range settings {
		if _, ok := f.settings[key]; !ok {
			return database.ErrSettingNotFound
		}
	}
	for key, value := range settings {
		f.settings[key] = value
	}
	return nil
}

type apiResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Meta    *Meta           `json:"meta"`
}

type testEnv struct {
	t     *testing.T
	app   *fiber.App
	store *fakeStore
	cfg   *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithCards(t, nil)
}

// newTestEnvWithCards mounts the recipe card routes when cards is non-nil
func newTestEnvWithCards(t *testing.T, cards *services.RecipeCardService) *testEnv {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:   "handler-test-secret",
		JWTExpiry:   time.Hour,
		MaxUploadMB: 10,
	}
	store := newFakeStore()
	h := New(store, cfg, nil, cards)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, h, NewSettingsHandler(store, cfg))

	store.users[1] = &models.User{ID: 1, Email: "owner@example.com", Role: models.RoleUser}
	store.users[2] = &models.User{ID: 2, Email: "other@example.com", Role: models.RoleUser}
	store.users[3] = &models.User{ID: 3, Email: "mod@example.com", Role: models.RoleModerator}
	store.users[9] = &models.User{ID: 9, Email: "admin@example.com", Role: models.RoleAdmin}

	store.recipes[10] = &models.Recipe{
		ID:           10,
		CreatedBy:    1,
		Title:        "Pancakes",
		Ingredients:  "2 cups flour\n1 tsp salt, fine\n\nwater to taste",
		Instructions: "Mix.",
		Status:       models.RecipeStatusDraft,
	}
	store.recipes[11] = &models.Recipe{
		ID:          11,
		CreatedBy:   1,
		Title:       "Soup",
		Ingredients: "1 l stock",
		Status:      models.RecipeStatusPublished,
		IsPublished: true,
	}

	return &testEnv{t: t, app: app, store: store, cfg: cfg}
}

func (e *testEnv) token(userID int) string {
	e.t.Helper()
	token, err := middleware.GenerateToken(e.cfg, e.store.users[userID])
	require.NoError(e.t, err)
	return token
}

// do sends a JSON request as userID (0 for anonymous)
func (e *testEnv) do(method, path string, userID int, body interface{}) (int, apiResult) {
	e.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return e.send(req, userID)
}

// send runs req as userID (0 for anonymous) and decodes the envelope
func (e *testEnv) send(req *http.Request, userID int) (int, apiResult) {
	e.t.Helper()
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+e.token(userID))
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	var result apiResult
	_ = json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func TestParseIngredientsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	status, res := env.do(http.MethodPost, "/api/ingredients/parse", 0, models.ParseIngredientsRequest{
		Text: "1/2 cup sugar, sifted\n\nsalt to taste",
	})
	require.Equal(t, http.StatusOK, status)
	require.True(t, res.Success)

	var rows []models.ParsedIngredient
	require.NoError(t, json.Unmarshal(res.Data, &rows))
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].LineNo)
	require.NotNil(t, rows[0].Quantity)
	assert.Equal(t, 0.5, *rows[0].Quantity)
	require.NotNil(t, rows[0].Unit)
	assert.Equal(t, "cup", *rows[0].Unit)
	assert.Equal(t, 1.0, rows[0].Confidence)

	assert.Equal(t, 2, rows[1].LineNo)
	assert.Nil(t, rows[1].Quantity)
	require.NotNil(t, rows[1].Notes)
	assert.Equal(t, "to taste", *rows[1].Notes)
}

func TestParseIngredientsEndpointEmptyText(t *testing.T) {
	env := newTestEnv(t)

	status, res := env.do(http.MethodPost, "/api/ingredients/parse", 0, models.ParseIngredientsRequest{Text: "  \n\n"})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(res.Data))
}

func TestReviewIngredients(t *testing.T) {
	env := newTestEnv(t)

	t.Run("owner sees parsed rows", func(t *testing.T) {
		status, res := env.do(http.MethodGet, "/api/recipes/10/review", 1, nil)
		require.Equal(t, http.StatusOK, status)

		var review models.IngredientReview
		require.NoError(t, json.Unmarshal(res.Data, &review))
		assert.Equal(t, 10, review.Recipe.ID)
		assert.Equal(t, "Pancakes", review.Recipe.Title)

		var lineNos []int
		for _, row := range review.Rows {
			lineNos = append(lineNos, row.LineNo)
		}
		if diff := cmp.Diff([]int{1, 2, 3}, lineNos); diff != "" {
			t.Errorf("line numbers mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("draft is hidden from other users", func(t *testing.T) {
		status, res := env.do(http.MethodGet, "/api/recipes/10/review", 2, nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "recipe not found", res.Error)
	})

	t.Run("published recipe of another user is forbidden", func(t *testing.T) {
		status, _ := env.do(http.MethodGet, "/api/recipes/11/review", 2, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("requires authentication", func(t *testing.T) {
		status, _ := env.do(http.MethodGet, "/api/recipes/10/review", 0, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(s string) *string     { return &s }

func TestSaveIngredientsValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		rows []models.ParsedIngredient
		want int
	}{
		{
			name: "valid rows",
			rows: []models.ParsedIngredient{
				{LineNo: 1, RawLine: "2 cups flour", Quantity: floatPtr(2), Unit: strPtr("cups"), ItemName: strPtr("flour"), Confidence: 1},
			},
			want: http.StatusOK,
		},
		{
			name: "zero line number",
			rows: []models.ParsedIngredient{{LineNo: 0, RawLine: "flour", Confidence: 0.5}},
			want: http.StatusBadRequest,
		},
		{
			name: "empty raw line",
			rows: []models.ParsedIngredient{{LineNo: 1, RawLine: "", Confidence: 0.5}},
			want: http.StatusBadRequest,
		},
		{
			name: "confidence out of range",
			rows: []models.ParsedIngredient{{LineNo: 1, RawLine: "flour", Confidence: 1.5}},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := env.do(http.MethodPut, "/api/recipes/10/ingredients", 1, models.SaveIngredientsRequest{Rows: tt.rows})
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestPublishRecipe(t *testing.T) {
	t.Run("rejects empty rows", func(t *testing.T) {
		env := newTestEnv(t)
		status, res := env.do(http.MethodPost, "/api/recipes/10/publish", 1, models.SaveIngredientsRequest{})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.False(t, res.Success)
		assert.False(t, env.store.published)
	})

	t.Run("publishes reviewed rows", func(t *testing.T) {
		env := newTestEnv(t)
		rows := []models.ParsedIngredient{
			{LineNo: 1, RawLine: "2 cups flour", Quantity: floatPtr(2), Unit: strPtr("cups"), ItemName: strPtr("flour"), Confidence: 1},
			{LineNo: 2, RawLine: "water to taste", ItemName: strPtr("water to taste"), Notes: strPtr("to taste"), Confidence: 0.6},
		}
		status, res := env.do(http.MethodPost, "/api/recipes/10/publish", 1, models.SaveIngredientsRequest{Rows: rows})
		require.Equal(t, http.StatusOK, status)

		var recipe models.Recipe
		require.NoError(t, json.Unmarshal(res.Data, &recipe))
		assert.Equal(t, models.RecipeStatusPublished, recipe.Status)
		assert.True(t, env.store.published)
		if diff := cmp.Diff(rows, env.store.savedRows); diff != "" {
			t.Errorf("saved rows mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("non-owner cannot publish", func(t *testing.T) {
		env := newTestEnv(t)
		rows := []models.ParsedIngredient{{LineNo: 1, RawLine: "1 l stock", Confidence: 1}}
		status, _ := env.do(http.MethodPost, "/api/recipes/11/publish", 2, models.SaveIngredientsRequest{Rows: rows})
		assert.Equal(t, http.StatusForbidden, status)
	})
}

func TestWritesRequireVerifiedEmail(t *testing.T) {
	env := newTestEnv(t)
	env.store.requireVerified = true

	rows := []models.ParsedIngredient{{LineNo: 1, RawLine: "flour", Confidence: 0.5}}
	status, _ := env.do(http.MethodPut, "/api/recipes/10/ingredients", 1, models.SaveIngredientsRequest{Rows: rows})
	assert.Equal(t, http.StatusForbidden, status)

	env.store.users[1].EmailVerified = true
	status, _ = env.do(http.MethodPut, "/api/recipes/10/ingredients", 1, models.SaveIngredientsRequest{Rows: rows})
	assert.Equal(t, http.StatusOK, status)
}

func TestListRecipesTagFilter(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodGet, "/api/recipes?tags=3,%205,,7&limit=10", 0, nil)
	require.Equal(t, http.StatusOK, status)
	if diff := cmp.Diff([]int{3, 5, 7}, env.store.listParams.TagIDs); diff != "" {
		t.Errorf("tag ids mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 10, env.store.listParams.Limit)

	status, res := env.do(http.MethodGet, "/api/recipes?tags=low-fodmap", 0, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid tag id", res.Error)
}

func TestCreateCommentNeedsDisplayName(t *testing.T) {
	env := newTestEnv(t)
	env.store.commentErr = database.ErrDisplayNameRequired

	status, res := env.do(http.MethodPost, "/api/forum/posts/4/comments", 1, models.CreateCommentRequest{Body: "Looks great"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "display name required", res.Error)

	env.store.commentErr = nil
	status, _ = env.do(http.MethodPost, "/api/forum/posts/4/comments", 1, models.CreateCommentRequest{Body: "   "})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(http.MethodPost, "/api/forum/posts/4/comments", 1, models.CreateCommentRequest{Body: "Looks great"})
	assert.Equal(t, http.StatusCreated, status)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		in   string
		want int
	}{
		{"too short", "ab", http.StatusBadRequest},
		{"blank", "   ", http.StatusBadRequest},
		{"too long", string(bytes.Repeat([]byte("x"), 51)), http.StatusBadRequest},
		{"trimmed", "  Gut Friendly  ", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := env.do(http.MethodPut, "/api/profile", 1, models.UpdateProfileRequest{DisplayName: tt.in})
			assert.Equal(t, tt.want, status)
		})
	}

	require.NotNil(t, env.store.users[1].DisplayName)
	assert.Equal(t, "Gut Friendly", *env.store.users[1].DisplayName)

	env.store.displayNameFn = func(int, *string) (*models.User, error) {
		return nil, database.ErrDisplayNameTaken
	}
	status, res := env.do(http.MethodPut, "/api/profile", 1, models.UpdateProfileRequest{DisplayName: "Taken Name"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "display name already taken", res.Error)
}

func TestAdminSetRole(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodPut, "/api/admin/users/2/role", 1, models.AdminSetRoleRequest{Role: models.RoleModerator})
	assert.Equal(t, http.StatusForbidden, status, "non-admin")

	status, res := env.do(http.MethodPut, "/api/admin/users/2/role", 9, models.AdminSetRoleRequest{Role: "chef"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid role", res.Error)

	status, _ = env.do(http.MethodPut, "/api/admin/users/9/role", 9, models.AdminSetRoleRequest{Role: models.RoleUser})
	assert.Equal(t, http.StatusBadRequest, status, "self demotion")

	status, _ = env.do(http.MethodPut, "/api/admin/users/2/role", 9, models.AdminSetRoleRequest{Role: models.RoleDoctor})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []models.Role{models.RoleDoctor}, env.store.roleChanges)

	status, _ = env.do(http.MethodPut, "/api/admin/users/42/role", 9, models.AdminSetRoleRequest{Role: models.RoleUser})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  models.RegisterRequest
		want int
	}{
		{"bad email", models.RegisterRequest{Email: "nope", Password: "longenough"}, http.StatusBadRequest},
		{"short password", models.RegisterRequest{Email: "new@example.com", Password: "short"}, http.StatusBadRequest},
		{"short display name", models.RegisterRequest{Email: "new@example.com", Password: "longenough", DisplayName: strPtr("ab")}, http.StatusBadRequest},
		{"duplicate email", models.RegisterRequest{Email: "OWNER@example.com", Password: "longenough"}, http.StatusConflict},
		{"ok", models.RegisterRequest{Email: "New@Example.com", Password: "longenough"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := env.do(http.MethodPost, "/api/auth/register", 0, tt.req)
			assert.Equal(t, tt.want, status)
		})
	}

	created, err := env.store.GetUserByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Nil(t, created.DisplayName)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("longenough")))
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	env.store.users[1].PasswordHash = string(hash)

	status, res := env.do(http.MethodPost, "/api/auth/login", 0, models.LoginRequest{Email: "owner@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid credentials", res.Error)

	status, _ = env.do(http.MethodPost, "/api/auth/login", 0, models.LoginRequest{Email: "ghost@example.com", Password: "correct horse"})
	assert.Equal(t, http.StatusUnauthorized, status)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		bytes.NewReader([]byte(`{"email":"Owner@Example.com","password":"correct horse"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var auth models.AuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&auth))
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, 1, auth.User.ID)
}

func TestScanRoutesAbsentWithoutStorage(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodPost, "/api/recipes/10/scan", 1, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestNormalizeDisplayName(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"", "", true},
		{"  ", "", true},
		{"abc", "abc", true},
		{"ab", "ab", false},
		{"  Ünïcödé  ", "Ünïcödé", true},
	}
	for _, tt := range tests {
		got, ok := normalizeDisplayName(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
	}
}

func TestStringifySettings(t *testing.T) {
	got := stringifySettings(map[string]interface{}{
		"s3_enabled": true,
		"port":       float64(3900),
		"ratio":      0.25,
		"bucket":     "cards",
		"empty":      nil,
	})
	want := map[string]string{
		"s3_enabled": "true",
		"port":       "3900",
		"ratio":      "0.25",
		"bucket":     "cards",
		"empty":      "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stringifySettings mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateSettings(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodPut, "/api/admin/settings/auth", 9, UpdateSettingsRequest{
		Settings: map[string]interface{}{"require_email_verify": true},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "true", env.store.settings["require_email_verify"])

	status, res := env.do(http.MethodPut, "/api/admin/settings/auth", 9, UpdateSettingsRequest{
		Settings: map[string]interface{}{"smtp_host": "mail"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "unknown setting", res.Error)

	status, _ = env.do(http.MethodPut, "/api/admin/settings/auth", 9, UpdateSettingsRequest{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUpdateStorageSettings(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodPut, "/api/admin/settings/storage", 9, UpdateStorageSettingsRequest{Enabled: true})
	assert.Equal(t, http.StatusBadRequest, status, "endpoint required when enabled")

	status, res := env.do(http.MethodPut, "/api/admin/settings/storage", 9, UpdateStorageSettingsRequest{
		Enabled:   true,
		Endpoint:  "garage:3900",
		AccessKey: database.MaskedValue,
		SecretKey: "new-secret",
		Bucket:    "cards",
	})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"Storage settings updated successfully","restart_required":true}`, string(res.Data))

	assert.Equal(t, "true", env.store.settings["s3_enabled"])
	assert.Equal(t, "garage:3900", env.store.settings["s3_endpoint"])
	assert.Equal(t, "old-access", env.store.settings["s3_access_key"], "masked value keeps the stored key")
	assert.Equal(t, "new-secret", env.store.settings["s3_secret_key"])
	assert.Equal(t, "cards", env.store.settings["s3_bucket"])
}
