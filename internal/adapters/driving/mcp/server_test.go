package mcp

import (
	"context"
	"net"
	"sort"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

func connectClient(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverSide, clientSide := mcp.NewInMemoryTransports()

	_, err := s.protocol.Connect(ctx, serverSide, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientSide, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func TestNewServer_Validation(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{name: "nil ports", ports: nil, wantErr: ErrMissingSearchService},
		{name: "missing search", ports: &Ports{Queue: &mockQueueService{}}, wantErr: ErrMissingSearchService},
		{name: "search only", ports: &Ports{Search: &mockSearchService{}}},
		{name: "every port", ports: &Ports{
			Search:   &mockSearchService{},
			Queue:    &mockQueueService{},
			Group:    &mockGroupService{},
			Document: &mockDocumentService{},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewServer(tt.ports, Options{})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestNewServer_Defaults(t *testing.T) {
	s, err := NewServer(&Ports{Search: &mockSearchService{}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, defaultVersion, s.opts.Version)
	assert.Equal(t, defaultShutdownTimeout, s.opts.ShutdownTimeout)

	s, err = NewServer(&Ports{Search: &mockSearchService{}}, Options{Version: "1.4.0", ShutdownTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "1.4.0", s.opts.Version)
	assert.Equal(t, time.Second, s.opts.ShutdownTimeout)
}

func TestServer_Session(t *testing.T) {
	ctx := context.Background()
	docs := &mockDocumentService{stats: domain.Stats{Documents: 2, Segments: 9}}
	s, err := NewServer(&Ports{Search: &mockSearchService{}, Document: docs}, Options{Version: "1.4.0"})
	require.NoError(t, err)
	session := connectClient(t, s)

	info := session.InitializeResult()
	require.NotNil(t, info)
	assert.Equal(t, serverName, info.ServerInfo.Name)
	assert.Equal(t, "1.4.0", info.ServerInfo.Version)
	assert.Contains(t, info.Instructions, "drain")

	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"drain", "requeue", "search", "stats"}, names)

	resources, err := session.ListResources(ctx, &mcp.ListResourcesParams{})
	require.NoError(t, err)
	require.Len(t, resources.Resources, 1)
	assert.Equal(t, "vectorlite://groups", resources.Resources[0].URI)

	templates, err := session.ListResourceTemplates(ctx, &mcp.ListResourceTemplatesParams{})
	require.NoError(t, err)
	assert.Len(t, templates.ResourceTemplates, 2)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "stats", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.False(t, res.IsError)
}

func TestServer_ToolErrorIsReported(t *testing.T) {
	s, err := NewServer(&Ports{Search: &mockSearchService{}}, Options{})
	require.NoError(t, err)
	session := connectClient(t, s)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: "stats", Arguments: map[string]any{}})

	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	s, err := NewServer(&Ports{Search: &mockSearchService{}}, Options{ShutdownTimeout: time.Second})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "http-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: "http://" + ln.Addr().String()}, nil)
	require.NoError(t, err)
	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	assert.Len(t, tools.Tools, 4)
	session.Close()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServer_RunHTTPBadAddress(t *testing.T) {
	s, err := NewServer(&Ports{Search: &mockSearchService{}}, Options{})
	require.NoError(t, err)

	err = s.RunHTTP(context.Background(), "not-an-address")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "listening on not-an-address")
}

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingSearchService)
	assert.NoError(t, (&Ports{Search: &mockSearchService{}}).Validate())
}
