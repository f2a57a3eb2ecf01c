// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - Extractor / ExtractorRegistry: MIME-keyed text extraction
//   - EmbeddingService: Remote embedding provider
//   - EmbeddingClient: Ordered, batched, retrying embedding over a provider
//   - VectorIndex: Persistent (vector, text, metadata) records with similarity search
//   - LLMService: Remote answer generation
//   - SessionStore: Turn persistence for session memory
//   - IngestionStatusStore: Per-document ingestion progress
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - PromptStore: User-editable prompt templates. Without it, embedded defaults are used.
//   - Connector: Upstream trigger that delivers document changes.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or extractor package
package driven
