package models

// Requisite is one weighted hiring requirement. Query is the retrieval
// text used to pull evidence chunks for this requisite; when empty the
// Description is used instead. Weights are integer percentages and must
// sum to 100 across the configured set.
type Requisite struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Query       string `yaml:"query" json:"query,omitempty"`
	Weight      int    `yaml:"weight" json:"weight"`
}

// RetrievalQuery returns the text to embed when searching for evidence.
func (r Requisite) RetrievalQuery() string {
	if r.Query != "" {
		return r.Query
	}
	return r.Description
}
