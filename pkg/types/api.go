package types

// GenerateRequest documents the POST /generate payload. The handler does not
// decode into this struct directly: optional fields are validated by
// rewrite.ParseRequest so that absent, null and malformed values can be told apart.
type GenerateRequest struct {
	// Required free text to rewrite. Must not be blank.
	// example: hola como estas
	Inputs string `json:"inputs" example:"hola como estas"`
	// Maximum number of new tokens to generate (1-2048, default 200).
	// example: 150
	MaxNewTokens int `json:"max_new_tokens,omitempty" example:"150"`
	// Temperature passed to the engine (0-2, default 0.3). Decoding is greedy,
	// so most engines ignore it.
	// example: 0.5
	Temperature float64 `json:"temperature,omitempty" example:"0.5"`
}

// GenerateResponse is returned by POST /generate on success.
type GenerateResponse struct {
	// Rewritten text, trimmed.
	// example: Hola, ¿cómo está usted?
	GeneratedText string `json:"generated_text" example:"Hola, ¿cómo está usted?"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: Field inputs required in JSON body
	Error string `json:"error" example:"Field inputs required in JSON body"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	// Always "ok".
	// example: ok
	Status string `json:"status" example:"ok"`
	// Identifier of the model behind the engine, fixed at startup.
	// example: google/flan-t5-base
	Model string `json:"model" example:"google/flan-t5-base"`
}
