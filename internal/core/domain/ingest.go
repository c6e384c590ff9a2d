package domain

// IngestState is a stage of the ingestion state machine.
// Stages advance Loading, Chunking, EmbeddingAndStoring, Done.
// Any stage may move to Failed.
type IngestState string

// Ingestion states.
const (
	IngestLoading             IngestState = "loading"
	IngestChunking            IngestState = "chunking"
	IngestEmbeddingAndStoring IngestState = "embedding_and_storing"
	IngestDone                IngestState = "done"
	IngestFailed              IngestState = "failed"
)

// IsTerminal returns true if no further transitions happen from this state.
func (s IngestState) IsTerminal() bool {
	return s == IngestDone || s == IngestFailed
}

// String returns the string representation.
func (s IngestState) String() string {
	return string(s)
}

// IngestProgress reports the current position of an ingestion run.
type IngestProgress struct {
	// State is the current stage.
	State IngestState

	// Path is the document being ingested.
	Path string

	// Pages is the number of pages loaded. Set from Chunking onwards.
	Pages int

	// Chunks is the number of chunks produced. Set from EmbeddingAndStoring onwards.
	Chunks int

	// Embedded is the number of chunks embedded so far.
	Embedded int

	// Stored is the number of records written. Set on Done.
	Stored int

	// Err is the failure cause when State is IngestFailed.
	Err error
}
