package loam

// StepMetadata is the frontmatter of a step document.
// It uses "mapstructure" tags to match the YAML keys written by catalog authors.
// The document body is the step summary.
type StepMetadata struct {
	Kind             string `json:"kind" mapstructure:"kind"`
	Detail           string `json:"detail,omitempty" mapstructure:"detail"`
	RequiresApproval bool   `json:"requires_approval" mapstructure:"requires_approval"`
	ApprovalPrompt   string `json:"approval_prompt,omitempty" mapstructure:"approval_prompt"`

	// Catalog copy, only read from the index document.
	Title         string   `json:"title,omitempty" mapstructure:"title"`
	Intro         string   `json:"intro,omitempty" mapstructure:"intro"`
	ResultsDetail string   `json:"results_detail,omitempty" mapstructure:"results_detail"`
	Reports       []string `json:"reports,omitempty" mapstructure:"reports"`
}
