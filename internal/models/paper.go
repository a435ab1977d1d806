package models

// Paper is a subject the backend lets a teacher place into schedule slots.
// Name is the stored slot value, Label is what the grid shows.
type Paper struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Label string `json:"paper"`
}

// PaperLabel resolves a slot value to its display label. Unknown values and
// the empty sentinel are shown verbatim.
func PaperLabel(papers []Paper, value string) string {
	for _, p := range papers {
		if p.Name == value && p.Label != "" {
			return p.Label
		}
	}
	return value
}
