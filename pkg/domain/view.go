package domain

// RevealFrame is one incremental rendering of a step's narrative text.
// Frames are transient and never persisted.
type RevealFrame struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
	// Seq is the 0-based position of the frame in its sequence.
	Seq int `json:"seq"`
}

// BlockType mirrors the small set of layout primitives chat surfaces share.
type BlockType string

const (
	BlockHeader  BlockType = "header"
	BlockSection BlockType = "section"
	BlockDivider BlockType = "divider"
	BlockContext BlockType = "context"
	BlockActions BlockType = "actions"
)

// ActionStyle hints how an affordance should be emphasised.
type ActionStyle string

const (
	StyleDefault ActionStyle = ""
	StylePrimary ActionStyle = "primary"
	StyleDanger  ActionStyle = "danger"
)

// Action ids the surface echoes back as triggers.
const (
	ActionStart       = "start"
	ActionViewResults = "view_results"
)

// Action is an operator affordance (a button). ID is echoed back by the
// surface as the decision kind or trigger name.
type Action struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Style ActionStyle `json:"style,omitempty"`
}

// Block is one element of a view. Text is Markdown.
type Block struct {
	Type    BlockType `json:"type"`
	Text    string    `json:"text,omitempty"`
	Actions []Action  `json:"actions,omitempty"`
}

// ViewModel is the full content of the operator's persistent view.
// Rendering a ViewModel is an idempotent full replace.
type ViewModel struct {
	Title  string  `json:"title"`
	Blocks []Block `json:"blocks"`
}

// Message is appended to a channel, optionally inside a thread.
type Message struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks,omitempty"`
}

// ApologyMessage is the only error text ever shown to an operator.
const ApologyMessage = "Sorry, something went wrong. Please try again."
