package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for vectorlite resources.
	uriScheme = "vectorlite://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing groups.
	s.protocol.AddResource(&mcp.Resource{
		URI:         uriScheme + "groups",
		Name:        "groups",
		Description: "All document groups with their document counts",
		MIMEType:    "application/json",
	}, s.handleGroupsResource)

	// Template for group documents.
	s.protocol.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "groups/{groupName}/documents",
		Name:        "group-documents",
		Description: "Documents in a specific group",
		MIMEType:    "application/json",
	}, s.handleGroupDocumentsResource)

	// Template for document content.
	s.protocol.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document-content",
		Description: "Full extracted text of a specific document",
		MIMEType:    "text/plain",
	}, s.handleDocumentContentResource)
}

// handleGroupsResource returns a list of all groups.
func (s *Server) handleGroupsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Group == nil {
		return jsonResult(req.Params.URI, "[]"), nil
	}

	groups, err := s.ports.Group.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}

	type groupInfo struct {
		Name          string `json:"name"`
		Description   string `json:"description,omitempty"`
		Color         string `json:"color"`
		DocumentCount int    `json:"document_count"`
	}

	infos := make([]groupInfo, len(groups))
	for i := range groups {
		infos[i] = groupInfo{
			Name:          groups[i].Name,
			Description:   groups[i].Description,
			Color:         groups[i].Color,
			DocumentCount: groups[i].DocumentCount,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling groups: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

// handleGroupDocumentsResource returns documents in one group.
func (s *Server) handleGroupDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract groupName from URI: vectorlite://groups/{groupName}/documents
	group := extractGroupName(req.Params.URI)
	if group == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docs, err := s.ports.Document.List(ctx, []string{group})
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	type docInfo struct {
		ID       int64    `json:"id"`
		Title    string   `json:"title"`
		FileType string   `json:"file_type"`
		Size     int64    `json:"size"`
		Groups   []string `json:"groups"`
		URI      string   `json:"uri"`
	}

	infos := make([]docInfo, len(docs))
	for i := range docs {
		infos[i] = docInfo{
			ID:       docs[i].ID,
			Title:    docs[i].Title,
			FileType: docs[i].FileType,
			Size:     docs[i].Size,
			Groups:   docs[i].Groups,
			URI:      uriScheme + "documents/" + strconv.FormatInt(docs[i].ID, 10),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

// handleDocumentContentResource returns the content of a specific document.
func (s *Server) handleDocumentContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract documentId from URI: vectorlite://documents/{documentId}
	docID, ok := extractDocumentID(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Document.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     doc.Content,
		}},
	}, nil
}

func jsonResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

// extractGroupName extracts the group from a URI like vectorlite://groups/{groupName}/documents.
func extractGroupName(uri string) string {
	const prefix = uriScheme + "groups/"
	const suffix = "/documents"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}

// extractDocumentID extracts the document ID from a URI like vectorlite://documents/{documentId}.
func extractDocumentID(uri string) (int64, bool) {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return 0, false
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(uri, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
