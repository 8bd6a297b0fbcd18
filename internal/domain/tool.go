package domain

// JSONSchema is a loosely-typed JSON schema fragment used for tool parameter
// declarations sent to the model.
type JSONSchema map[string]any

// Tool describes a callable tool as advertised to the model.
type Tool struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"`
}
