package classify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// wireOutput is the JSON object the model is instructed to return.
type wireOutput struct {
	ResponseType        string            `json:"response_type"`
	RecipeDetails       *wireRecipe       `json:"recipe_details"`
	ConversationDetails *wireConversation `json:"conversation_details"`
	ErrorDetails        *wireError        `json:"error_details"`
}

// wireRecipe accepts both the canonical keys and the legacy aliases
// ("overview/details", "ingrediants items") older prompts produced.
type wireRecipe struct {
	Title                string   `json:"title"`
	Overview             string   `json:"overview"`
	OverviewAlias        string   `json:"overview/details"`
	Rating               string   `json:"rating"`
	Ingredients          []string `json:"ingredients"`
	IngredientItems      []string `json:"ingredient_items"`
	IngredientItemsAlias []string `json:"ingrediants items"`
	Instructions         string   `json:"instructions"`
}

type wireConversation struct {
	Response  string   `json:"response"`
	ItemsList []string `json:"items_list"`
}

type wireError struct {
	Title                string   `json:"title"`
	Overview             string   `json:"overview"`
	IngredientItems      []string `json:"ingredient_items"`
	IngredientItemsAlias []string `json:"ingrediants items"`
}

// parseOutput decodes model output into an Outcome. Exactly one details
// object must be present and it must agree with response_type when that
// is set; anything else is a malformed Failure.
func parseOutput(data []byte) (Outcome, error) {
	var w wireOutput
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &Failure{Reason: ReasonMalformed, Err: err}
	}

	var arms []Outcome
	if w.RecipeDetails != nil {
		arms = append(arms, w.RecipeDetails.outcome())
	}
	if w.ConversationDetails != nil {
		arms = append(arms, w.ConversationDetails.outcome())
	}
	if w.ErrorDetails != nil {
		arms = append(arms, w.ErrorDetails.outcome())
	}

	switch len(arms) {
	case 0:
		return nil, &Failure{Reason: ReasonMalformed, Err: fmt.Errorf("no details object in response")}
	case 1:
	default:
		return nil, &Failure{Reason: ReasonMalformed, Err: fmt.Errorf("%d details objects in response, want 1", len(arms))}
	}

	out := arms[0]
	if rt := strings.TrimSpace(w.ResponseType); rt != "" && Kind(rt) != out.Kind() {
		return nil, &Failure{Reason: ReasonMalformed, Err: fmt.Errorf("response_type %q does not match %s details", rt, out.Kind())}
	}
	return out, nil
}

func (w *wireRecipe) outcome() Outcome {
	r := &Recipe{
		Title:           w.Title,
		Overview:        w.Overview,
		Rating:          w.Rating,
		Ingredients:     w.Ingredients,
		IngredientItems: w.IngredientItems,
		Instructions:    w.Instructions,
	}
	if r.Overview == "" {
		r.Overview = w.OverviewAlias
	}
	if len(r.IngredientItems) == 0 {
		r.IngredientItems = w.IngredientItemsAlias
	}
	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}
	return r
}

func (w *wireConversation) outcome() Outcome {
	return &Conversation{Response: w.Response, ItemsList: w.ItemsList}
}

func (w *wireError) outcome() Outcome {
	e := &InvalidRequest{
		Title:           w.Title,
		Overview:        w.Overview,
		IngredientItems: w.IngredientItems,
	}
	if len(e.IngredientItems) == 0 {
		e.IngredientItems = w.IngredientItemsAlias
	}
	if e.IngredientItems == nil {
		e.IngredientItems = []string{}
	}
	return e
}
