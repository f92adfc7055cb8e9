package categories

import "github.com/myrizq/rizq/internal/model"

// IDs of catalog entries other packages fall back to.
const (
	IncomeID = "income"
	OtherID  = "other"
)

// Defaults returns the catalog every user starts with.
func Defaults() []model.Category {
	return []model.Category{
		{ID: "food-dining", Name: "Food & Dining", Icon: "utensils", Color: "#3b82f6"},
		{ID: "transportation", Name: "Transportation", Icon: "car", Color: "#10b981"},
		{ID: "housing", Name: "Housing", Icon: "home", Color: "#ef4444"},
		{ID: IncomeID, Name: "Income", Icon: "banknote", Color: "#22c55e"},
		{ID: OtherID, Name: "Other", Icon: "circle", Color: "#6b7280"},
	}
}
