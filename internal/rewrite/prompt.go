package rewrite

import "formalizer/internal/engine"

// Instruction is prepended to every input. It asks for a formal Spanish
// rewrite and nothing else.
const Instruction = "Reformulate the following text in Spanish with a formal, clear and professional tone. Respond ONLY with the reformulated text: "

// Generation defaults and bounds for optional request fields.
const (
	DefaultMaxNewTokens = 200
	DefaultTemperature  = 0.3

	MinMaxNewTokens = 1
	MaxMaxNewTokens = 2048
	MinTemperature  = 0.0
	MaxTemperature  = 2.0
)

// excerptLen bounds how much user text goes into a log line.
const excerptLen = 50

// BuildPrompt returns the engine prompt for already-trimmed input text.
func BuildPrompt(text string) string {
	return Instruction + text
}

// decodingOptions applies the fixed decoding policy to the request values.
func decodingOptions(req Request) engine.Options {
	return engine.Options{
		MaxNewTokens:  req.MaxNewTokens,
		Temperature:   req.Temperature,
		Deterministic: true,
		EarlyStopping: true,
	}
}

// excerpt returns at most n runes of s.
func excerpt(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
