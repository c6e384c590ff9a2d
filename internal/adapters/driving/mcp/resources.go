package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for docqa resources.
	uriScheme = "docqa://"

	corpusURI = uriScheme + "corpus"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         corpusURI,
		Name:        "corpus",
		Description: "Collection name, backend and number of stored chunks",
		MIMEType:    "application/json",
	}, s.handleCorpusResource)
}

type corpusInfo struct {
	Collection string `json:"collection"`
	Backend    string `json:"backend"`
	Records    int    `json:"records"`
}

// handleCorpusResource reports the status of the configured collection.
func (s *Server) handleCorpusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Corpus == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	status, err := s.ports.Corpus.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading corpus status: %w", err)
	}

	data, err := json.MarshalIndent(corpusInfo{
		Collection: status.CollectionID,
		Backend:    string(status.Backend),
		Records:    status.Records,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling corpus status: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
