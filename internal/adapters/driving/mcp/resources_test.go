package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

func TestExtractGroupName(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid group documents URI",
			uri:      "vectorlite://groups/work/documents",
			expected: "work",
		},
		{
			name:     "invalid prefix",
			uri:      "file://groups/work/documents",
			expected: "",
		},
		{
			name:     "missing documents suffix",
			uri:      "vectorlite://groups/work",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractGroupName(tt.uri))
		})
	}
}

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		wantID int64
		wantOK bool
	}{
		{"valid document URI", "vectorlite://documents/456", 456, true},
		{"invalid prefix", "file://documents/456", 0, false},
		{"non-numeric id", "vectorlite://documents/doc-456", 0, false},
		{"zero id", "vectorlite://documents/0", 0, false},
		{"empty URI", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := extractDocumentID(tt.uri)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleGroupsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil group service returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}}, Options{})
		require.NoError(t, err)

		result, err := server.handleGroupsResource(ctx, makeReadResourceRequest("vectorlite://groups"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns groups", func(t *testing.T) {
		mockGroups := &mockGroupService{
			groups: []domain.Group{
				{Name: "default", Color: "#007cba", DocumentCount: 2},
				{Name: "work", Color: "#ff0000", Description: "Work notes"},
			},
		}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Group: mockGroups}, Options{})
		require.NoError(t, err)

		result, err := server.handleGroupsResource(ctx, makeReadResourceRequest("vectorlite://groups"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var got []map[string]any
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "default", got[0]["name"])
		assert.Equal(t, float64(2), got[0]["document_count"])
		assert.Equal(t, "Work notes", got[1]["description"])
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		mockGroups := &mockGroupService{err: errors.New("db down")}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Group: mockGroups}, Options{})
		require.NoError(t, err)

		_, err = server.handleGroupsResource(ctx, makeReadResourceRequest("vectorlite://groups"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing groups")
	})
}

func TestServer_handleGroupDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document service returns not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}}, Options{})
		require.NoError(t, err)

		_, err = server.handleGroupDocumentsResource(ctx, makeReadResourceRequest("vectorlite://groups/work/documents"))
		assert.Error(t, err)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Document: &mockDocumentService{}}, Options{})
		require.NoError(t, err)

		_, err = server.handleGroupDocumentsResource(ctx, makeReadResourceRequest("vectorlite://groups/work"))
		assert.Error(t, err)
	})

	t.Run("lists documents in the group", func(t *testing.T) {
		mockDocs := &mockDocumentService{
			documents: []domain.Document{
				{ID: 3, Title: "plan", FileType: "md", Size: 120, Groups: []string{"work"}},
			},
		}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Document: mockDocs}, Options{})
		require.NoError(t, err)

		result, err := server.handleGroupDocumentsResource(ctx, makeReadResourceRequest("vectorlite://groups/work/documents"))
		require.NoError(t, err)

		assert.Equal(t, []string{"work"}, mockDocs.gotGroups)
		var got []map[string]any
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "plan", got[0]["title"])
		assert.Equal(t, "vectorlite://documents/3", got[0]["uri"])
	})
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document service returns not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}}, Options{})
		require.NoError(t, err)

		_, err = server.handleDocumentContentResource(ctx, makeReadResourceRequest("vectorlite://documents/1"))
		assert.Error(t, err)
	})

	t.Run("returns document text", func(t *testing.T) {
		mockDocs := &mockDocumentService{
			document: &domain.Document{ID: 1, Content: "Hello world"},
		}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Document: mockDocs}, Options{})
		require.NoError(t, err)

		result, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("vectorlite://documents/1"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
		assert.Equal(t, "Hello world", result.Contents[0].Text)
	})

	t.Run("wraps lookup errors", func(t *testing.T) {
		mockDocs := &mockDocumentService{err: domain.ErrNotFound}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Document: mockDocs}, Options{})
		require.NoError(t, err)

		_, err = server.handleDocumentContentResource(ctx, makeReadResourceRequest("vectorlite://documents/9"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
