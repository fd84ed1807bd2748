package domain

// FraudRequest is one fraud analysis call. TransactionData is a loose payload
// from the marketplace backend; recognized numeric keys override the feature
// store and anything unrecognized is ignored.
type FraudRequest struct {
	UserID          string         `json:"userId"`
	TransactionData map[string]any `json:"transactionData"`
}

// PricingRequest asks for a suggested daily price for a listing.
type PricingRequest struct {
	CarID     string  `json:"carId"`
	BasePrice float64 `json:"basePrice"`
	Location  string  `json:"location"`
	StartDate string  `json:"startDate"` // YYYY-MM-DD
	EndDate   string  `json:"endDate"`   // YYYY-MM-DD

	// Optional caller-supplied demand boosts.
	EventNearby    bool `json:"eventNearby,omitempty"`
	BusinessTravel bool `json:"businessTravel,omitempty"`
	TouristSeason  bool `json:"touristSeason,omitempty"`
}

// ModerationRequest asks for a content appropriateness check.
type ModerationRequest struct {
	AuthorID    string `json:"authorId"`
	Content     string `json:"content"`
	ContentType string `json:"contentType"` // "listing", "message", "review"
}

// ModelUpdateRequest carries a labeled historical dataset for retraining.
type ModelUpdateRequest struct {
	Domain  string           `json:"domain"` // "fraud" or "pricing"
	Records []TrainingRecord `json:"records"`
}

// BatchItem is one entry in an async batch analysis request.
type BatchItem struct {
	Domain     string             `json:"domain"`
	Fraud      *FraudRequest      `json:"fraud,omitempty"`
	Pricing    *PricingRequest    `json:"pricing,omitempty"`
	Moderation *ModerationRequest `json:"moderation,omitempty"`
}

// BatchRequest groups analysis items processed asynchronously by the worker.
type BatchRequest struct {
	BatchID string      `json:"batchId"`
	Items   []BatchItem `json:"items"`
}
