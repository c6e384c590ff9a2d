package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestCorpusStatusCmd(t *testing.T) {
	corpus := &fakeCorpus{status: domain.CollectionStatus{
		CollectionID: "pdf_documents",
		Records:      12,
		Backend:      domain.CorpusBackendSQLite,
	}}

	out, err := execute(t, &fakeRuntime{corpus: corpus}, "", "corpus", "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Collection: pdf_documents")
	assert.Contains(t, out, "Backend: "+domain.CorpusBackendSQLite.Description())
	assert.Contains(t, out, "Records: 12")
	assert.NotContains(t, out, "The collection is empty")
}

func TestCorpusStatusCmd_Empty(t *testing.T) {
	corpus := &fakeCorpus{status: domain.CollectionStatus{CollectionID: "pdf_documents", Backend: domain.CorpusBackendMemory}}

	out, err := execute(t, &fakeRuntime{corpus: corpus}, "", "corpus", "status")

	require.NoError(t, err)
	assert.Contains(t, out, "The collection is empty")
}

func TestCorpusStatusCmd_Error(t *testing.T) {
	corpus := &fakeCorpus{err: errors.New("storage down")}

	_, err := execute(t, &fakeRuntime{corpus: corpus}, "", "corpus", "status")

	assert.EqualError(t, err, "storage down")
}

func TestCorpusDeleteCmd(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		args    []string
		deleted bool
	}{
		{"confirmed", "y\n", []string{"corpus", "delete"}, true},
		{"confirmed with yes", "yes\n", []string{"corpus", "delete"}, true},
		{"declined", "n\n", []string{"corpus", "delete"}, false},
		{"no answer", "", []string{"corpus", "delete"}, false},
		{"yes flag", "", []string{"corpus", "delete", "-y"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corpus := &fakeCorpus{status: domain.CollectionStatus{CollectionID: "pdf_documents", Records: 3}}

			out, err := execute(t, &fakeRuntime{corpus: corpus}, tt.stdin, tt.args...)

			require.NoError(t, err)
			assert.Equal(t, tt.deleted, corpus.deleted)
			if tt.deleted {
				assert.Contains(t, out, `Deleted collection "pdf_documents".`)
			} else {
				assert.Contains(t, out, "Aborted.")
			}
		})
	}
}
