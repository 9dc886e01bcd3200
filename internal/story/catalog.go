package story

import "fmt"

// Provider names used in the catalog.
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// Model is one selectable entry of the model catalog.
type Model struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// DefaultModel is selected when a session starts.
const DefaultModel = "mistralai/mistral-7b-instruct"

// Catalog is the fixed list of models offered in the model selector.
var Catalog = []Model{
	{ID: "mistralai/mistral-7b-instruct", Name: "Mistral 7B Instruct", Provider: ProviderOpenRouter},
	{ID: "meta-llama/llama-3.1-8b-instruct", Name: "Llama 3.1 8B Instruct", Provider: ProviderOpenRouter},
	{ID: "google/gemma-2-9b-it", Name: "Gemma 2 9B", Provider: ProviderOpenRouter},
	{ID: "openai/gpt-4o-mini", Name: "GPT-4o mini", Provider: ProviderOpenRouter},
	{ID: "deepseek/deepseek-chat", Name: "DeepSeek Chat", Provider: ProviderOpenRouter},
	{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Provider: ProviderGemini},
}

// Lookup finds a catalog entry by id.
func Lookup(id string) (Model, bool) {
	for _, m := range Catalog {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// ValidateModel returns an error wrapping ErrUnknownModel for ids outside
// the catalog.
func ValidateModel(id string) error {
	if _, ok := Lookup(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	return nil
}

// ModelIDs lists catalog ids in display order.
func ModelIDs() []string {
	ids := make([]string, len(Catalog))
	for i, m := range Catalog {
		ids[i] = m.ID
	}
	return ids
}
