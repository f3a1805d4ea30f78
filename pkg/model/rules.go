package model

// PreparationWindow is the number of days an item needs before a booking
// starts (lead) and after it ends (trail).
type PreparationWindow struct {
	LeadDays  int `json:"lead_days" bson:"bookings_lead_period"`
	TrailDays int `json:"trail_days" bson:"bookings_trail_period"`
}

// Normalize clamps negative periods to zero.
func (w PreparationWindow) Normalize() PreparationWindow {
	return PreparationWindow{LeadDays: max(w.LeadDays, 0), TrailDays: max(w.TrailDays, 0)}
}

// RulesQuery selects the circulation rules that apply to a booking. Empty
// fields match the catalog's default rule.
type RulesQuery struct {
	PatronCategoryID string `json:"patron_category_id,omitempty"`
	ItemTypeID       string `json:"item_type_id,omitempty"`
	LibraryID        string `json:"library_id,omitempty"`
}
