// Package classify wraps the language-model service that sorts a chat turn
// into a conversation reply, a recipe, or an invalid-request rejection.
package classify

// Kind names which arm of an Outcome is populated.
type Kind string

// Outcome kinds. The values double as the wire response_type.
const (
	KindConversation Kind = "conversation"
	KindRecipe       Kind = "recipe"
	KindError        Kind = "error"
)

// Outcome is a sealed tagged variant: exactly one of *Recipe,
// *Conversation or *InvalidRequest. Callers switch on the concrete type.
type Outcome interface {
	Kind() Kind
	outcome()
}

// Recipe is a generated recipe.
type Recipe struct {
	Title           string   `json:"title"`
	Overview        string   `json:"overview"`
	Rating          string   `json:"rating"`
	Ingredients     []string `json:"ingredients"`
	IngredientItems []string `json:"ingredient_items"`
	Instructions    string   `json:"instructions"`
}

// Conversation is a plain conversational reply with an optional list.
type Conversation struct {
	Response  string   `json:"response"`
	ItemsList []string `json:"items_list,omitempty"`
}

// InvalidRequest reports that the user's request was contradictory or
// impossible. It is a legitimate classification, not a system fault.
type InvalidRequest struct {
	Title           string   `json:"title"`
	Overview        string   `json:"overview"`
	IngredientItems []string `json:"ingredient_items"`
}

func (*Recipe) Kind() Kind         { return KindRecipe }
func (*Conversation) Kind() Kind   { return KindConversation }
func (*InvalidRequest) Kind() Kind { return KindError }

func (*Recipe) outcome()         {}
func (*Conversation) outcome()   {}
func (*InvalidRequest) outcome() {}
