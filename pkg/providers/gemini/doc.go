// Package gemini implements the llm.Client interface for Google Gemini
// models. Conversations are flattened into a single prompt, so this adapter
// does not advertise tool support.
package gemini
