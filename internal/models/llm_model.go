package models

// LLMModel is a selectable generation backend.
type LLMModel struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Label returns the human-readable model name.
func (m LLMModel) Label() string {
	switch {
	case m.Title != "":
		return m.Title
	case m.Name != "":
		return m.Name
	default:
		return m.ID
	}
}
