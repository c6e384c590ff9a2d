// Package domain defines the core business entities for docqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: The extracted text of a corpus file, page by page
//   - Chunk: A bounded, ordered substring of a page
//   - CorpusRecord: A chunk paired with its embedding and collection
//   - ScoredChunk: A retrieved chunk with its similarity score
//   - RetrievedContext: The ranked chunks retrieved for one question
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
