package model

// Category labels transactions. Transactions reference categories by ID and
// never own them.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}
