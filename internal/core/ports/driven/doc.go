// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentLoader: Extracts page text from a corpus file (PDF)
//   - Splitter: Cuts a document into overlapping chunks
//   - EmbeddingService: Maps text to vectors
//   - CorpusStore: Persists records per collection and answers similarity queries
//   - LLMService: Generates the answer from an assembled prompt
//   - ConfigStore: Application configuration
//   - PromptStore: Prompt templates
//
// # Optional Interfaces
//
//   - AIConfigValidator: Pings providers when settings change
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
