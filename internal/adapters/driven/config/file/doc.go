// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under ~/.ragent on the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable prompt templates with embedded defaults
//   - LoadManifest: YAML ingestion manifests
package file
