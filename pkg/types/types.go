package types

// HealthStatusOK is the only status GET /health reports.
const HealthStatusOK = "ok"

// NewHealth returns the health payload for a model identifier.
func NewHealth(model string) HealthResponse {
	return HealthResponse{Status: HealthStatusOK, Model: model}
}
