package models

// ParsedIngredient represents a single parsed line of a recipe's ingredient text.
// Absent fields are nil and serialize as null.
type ParsedIngredient struct {
	LineNo     int      `json:"line_no"`
	RawLine    string   `json:"raw_line"`
	Quantity   *float64 `json:"quantity"`
	Unit       *string  `json:"unit"`
	ItemName   *string  `json:"item_name"`
	Notes      *string  `json:"notes"`
	Category   *string  `json:"category"`
	Confidence float64  `json:"confidence"`
}

// RecipeIngredient is a persisted ingredient row, keyed by recipe and line number
type RecipeIngredient struct {
	RecipeID int `json:"recipe_id"`
	ParsedIngredient
}

// ParseIngredientsRequest is the request body for an ad-hoc parse
type ParseIngredientsRequest struct {
	Text string `json:"text"`
}

// SaveIngredientsRequest carries the reviewed (possibly hand-edited) rows
type SaveIngredientsRequest struct {
	Rows []ParsedIngredient `json:"rows"`
}

// IngredientReview is returned by the review step
type IngredientReview struct {
	Recipe RecipeSummary      `json:"recipe"`
	Rows   []ParsedIngredient `json:"rows"`
}

// ScanResult is returned after a recipe card image has been read
type ScanResult struct {
	ImageKey string             `json:"image_key"`
	Text     string             `json:"text"`
	Rows     []ParsedIngredient `json:"rows"`
}
