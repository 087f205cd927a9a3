package catalog

// Service is a bookable grooming service. DurationMinutes sizes the
// footprint an appointment occupies on the professional's day.
type Service struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration"`
}

// Professional is a staff member appointments are scoped to.
type Professional struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
