package domain

// RefusalSentence is the exact reply given when the retrieved context
// does not contain the answer to a question.
const RefusalSentence = "Não tenho informações necessárias para responder sua pergunta."

// CorpusRecord is a chunk stored in the corpus with its embedding.
type CorpusRecord struct {
	// Chunk is the stored text unit.
	Chunk Chunk

	// Embedding is the vector produced for Chunk.Text.
	Embedding []float32

	// CollectionID is the named collection this record belongs to.
	CollectionID string
}

// ScoredChunk is a chunk returned by similarity search.
// Higher scores mean more similar.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// RetrievedContext is the ranked result of retrieval for one question.
type RetrievedContext struct {
	// Question is the user question the chunks were retrieved for.
	Question string

	// K is the number of chunks that were requested.
	K int

	// Chunks are ordered by non-increasing score.
	Chunks []ScoredChunk
}

// IsEmpty reports whether no chunk was retrieved.
func (r RetrievedContext) IsEmpty() bool {
	return len(r.Chunks) == 0
}

// Texts returns the chunk texts in ranking order.
func (r RetrievedContext) Texts() []string {
	texts := make([]string, len(r.Chunks))
	for i := range r.Chunks {
		texts[i] = r.Chunks[i].Chunk.Text
	}
	return texts
}

// CollectionStatus describes the stored state of one collection.
type CollectionStatus struct {
	// CollectionID is the collection name.
	CollectionID string

	// Records is the number of stored records.
	Records int

	// Backend names the corpus store in use.
	Backend CorpusBackend
}
