package models

// Component is a hardware component in the catalog.
type Component struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Price          float64   `json:"price"`
	PriceFormatted string    `json:"priceFormatted"`
	ImageURL       string    `json:"imageUrl"`
	Description    string    `json:"description,omitempty"`
	Specs          string    `json:"specs,omitempty"`
	CreatedAt      Timestamp `json:"createdAt"`
	UpdatedAt      Timestamp `json:"updatedAt"`
}

// ComponentList is the response for a component listing.
type ComponentList struct {
	Items []Component `json:"items"`
	Type  string      `json:"type"`
	Count int         `json:"count"`
}

// ComponentWriteRequest is the body for creating or replacing a component.
type ComponentWriteRequest struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Price       *float64 `json:"price"`
	ImageURL    string   `json:"imageUrl"`
	Description string   `json:"description,omitempty"`
	Specs       string   `json:"specs,omitempty"`
}
