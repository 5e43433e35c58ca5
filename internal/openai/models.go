package openai

// Model is an OpenAI chat model identifier as expected by the "model"
// field of the Chat Completions API.
//
// The list below follows the officially documented chat models at
// https://platform.openai.com/docs/models — check that page (or
// GET /v1/models) to confirm which models are enabled for a given key.
type Model string

const (
	// GPT-5.x family, frontier down to cost/speed variants.
	ModelGPT52    Model = "gpt-5.2"
	ModelGPT51    Model = "gpt-5.1"
	ModelGPT5     Model = "gpt-5"
	ModelGPT5Mini Model = "gpt-5-mini"
	ModelGPT5Nano Model = "gpt-5-nano"

	// GPT-4.1 family.
	ModelGPT41     Model = "gpt-4.1"
	ModelGPT41Mini Model = "gpt-4.1-mini"

	// GPT-4o ("omni") family.
	ModelGPT4o     Model = "gpt-4o"
	ModelGPT4oMini Model = "gpt-4o-mini"
)

// DefaultModel is used when the caller does not pick one.
const DefaultModel = ModelGPT5Mini

// Models returns the closed set of known model identifiers, in rough
// capability order. Useful for CLI listing and validation.
func Models() []Model {
	return []Model{
		ModelGPT52,
		ModelGPT51,
		ModelGPT5,
		ModelGPT5Mini,
		ModelGPT5Nano,
		ModelGPT41,
		ModelGPT41Mini,
		ModelGPT4o,
		ModelGPT4oMini,
	}
}
