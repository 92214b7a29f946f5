package entity

// QueueStats represents aggregate counts of an account's queue by status
type QueueStats struct {
	Pending   int `json:"pending"`
	Published int `json:"published"`
	Error     int `json:"error"`
	Total     int `json:"total"`
}
