package models

// HealthResponse reports overall status plus the reachability of each
// backing service ("up" or "down", keyed by service name).
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}
