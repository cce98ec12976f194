// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration under the config directory
//   - PromptStore: editable LLM prompt templates
package file
