package cli

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
)

// MockIngestService implements driving.IngestService for testing.
type MockIngestService struct {
	IngestFunc     func(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error)
	IngestFileFunc func(ctx context.Context, path string, groups []string, policy driving.DuplicatePolicy) (*driving.IngestResult, error)

	Requests []driving.IngestRequest
	Paths    []string
	Policies []driving.DuplicatePolicy
	Groups   [][]string
}

func (m *MockIngestService) Ingest(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	m.Requests = append(m.Requests, req)
	m.Policies = append(m.Policies, req.OnDuplicate)
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, req)
	}
	return &driving.IngestResult{DocumentID: 1, Key: "doc_1", SegmentCount: 1}, nil
}

func (m *MockIngestService) IngestFile(
	ctx context.Context, path string, groups []string, policy driving.DuplicatePolicy,
) (*driving.IngestResult, error) {
	m.Paths = append(m.Paths, path)
	m.Policies = append(m.Policies, policy)
	m.Groups = append(m.Groups, groups)
	if m.IngestFileFunc != nil {
		return m.IngestFileFunc(ctx, path, groups, policy)
	}
	return &driving.IngestResult{DocumentID: int64(len(m.Paths)), SegmentCount: 3}, nil
}

// MockQueueService implements driving.QueueService for testing.
type MockQueueService struct {
	DrainBatchFunc func(ctx context.Context, scope domain.Scope, size, offset int) (*domain.DrainReport, error)
	DrainAllFunc   func(ctx context.Context, batchSize int) (*domain.DrainReport, error)
	PlanEntries    []domain.QueueEntry
	Entries        []domain.QueueEntry
	StatsValue     domain.QueueStats
	RequeueCount   int
	RecoverCount   int
	Err            error

	GotScope     domain.Scope
	GotSize      int
	GotOffset    int
	GotStatus    domain.QueueStatus
	GotLimit     int
	GotOlderThan time.Duration
}

func (m *MockQueueService) DrainBatch(
	ctx context.Context, scope domain.Scope, size, offset int,
) (*domain.DrainReport, error) {
	m.GotScope, m.GotSize, m.GotOffset = scope, size, offset
	if m.DrainBatchFunc != nil {
		return m.DrainBatchFunc(ctx, scope, size, offset)
	}
	return &domain.DrainReport{BatchIndex: offset}, m.Err
}

func (m *MockQueueService) DrainAll(ctx context.Context, batchSize int) (*domain.DrainReport, error) {
	m.GotSize = batchSize
	if m.DrainAllFunc != nil {
		return m.DrainAllFunc(ctx, batchSize)
	}
	return &domain.DrainReport{}, m.Err
}

func (m *MockQueueService) Plan(
	_ context.Context, scope domain.Scope, size, offset int,
) ([]domain.QueueEntry, error) {
	m.GotScope, m.GotSize, m.GotOffset = scope, size, offset
	return m.PlanEntries, m.Err
}

func (m *MockQueueService) Requeue(_ context.Context, scope domain.Scope) (int, error) {
	m.GotScope = scope
	return m.RequeueCount, m.Err
}

func (m *MockQueueService) Recover(_ context.Context, olderThan time.Duration) (int, error) {
	m.GotOlderThan = olderThan
	return m.RecoverCount, m.Err
}

func (m *MockQueueService) List(_ context.Context, status domain.QueueStatus, limit int) ([]domain.QueueEntry, error) {
	m.GotStatus, m.GotLimit = status, limit
	return m.Entries, m.Err
}

func (m *MockQueueService) Stats(_ context.Context) (domain.QueueStats, error) {
	return m.StatsValue, m.Err
}

// MockSearchService implements driving.SearchService for testing.
type MockSearchService struct {
	Results []domain.SearchResult
	Err     error

	GotQuery string
	GotOpts  domain.SearchOptions
}

func (m *MockSearchService) Search(
	_ context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.GotQuery, m.GotOpts = query, opts
	return m.Results, m.Err
}

// MockGroupService implements driving.GroupService for testing.
type MockGroupService struct {
	Groups []domain.Group
	Err    error

	Created    []driving.GroupInput
	Updated    map[string]driving.GroupInput
	Deleted    []string
	Membership map[int64][]string
}

func (m *MockGroupService) Create(_ context.Context, in driving.GroupInput) (*domain.Group, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Created = append(m.Created, in)
	color := in.Color
	if color == "" {
		color = domain.DefaultGroupColor
	}
	return &domain.Group{Name: in.Name, Description: in.Description, Color: color}, nil
}

func (m *MockGroupService) Get(_ context.Context, name string) (*domain.Group, error) {
	for i := range m.Groups {
		if m.Groups[i].Name == name {
			g := m.Groups[i]
			return &g, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockGroupService) List(_ context.Context) ([]domain.Group, error) {
	return m.Groups, m.Err
}

func (m *MockGroupService) Update(_ context.Context, name string, in driving.GroupInput) (*domain.Group, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Updated == nil {
		m.Updated = make(map[string]driving.GroupInput)
	}
	m.Updated[name] = in
	newName := in.Name
	if newName == "" {
		newName = name
	}
	return &domain.Group{Name: newName, Description: in.Description, Color: in.Color}, nil
}

func (m *MockGroupService) Delete(_ context.Context, name string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Deleted = append(m.Deleted, name)
	return nil
}

func (m *MockGroupService) SetDocumentGroups(_ context.Context, documentID int64, names []string) error {
	if m.Err != nil {
		return m.Err
	}
	if m.Membership == nil {
		m.Membership = make(map[int64][]string)
	}
	m.Membership[documentID] = names
	return nil
}

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	Docs       []domain.Document
	Segs       map[int64][]domain.Segment
	StatsValue domain.Stats
	Err        error

	GotGroups []string
	Deleted   []int64
}

func (m *MockDocumentService) List(_ context.Context, groups []string) ([]domain.Document, error) {
	m.GotGroups = groups
	return m.Docs, m.Err
}

func (m *MockDocumentService) Get(_ context.Context, id int64) (*domain.Document, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Docs {
		if m.Docs[i].ID == id {
			d := m.Docs[i]
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) Segments(_ context.Context, id int64) ([]domain.Segment, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Segs[id], nil
}

func (m *MockDocumentService) Delete(_ context.Context, id int64) error {
	if m.Err != nil {
		return m.Err
	}
	m.Deleted = append(m.Deleted, id)
	return nil
}

func (m *MockDocumentService) Stats(_ context.Context) (domain.Stats, error) {
	return m.StatsValue, m.Err
}

// MockSettingsService implements driving.SettingsService for testing.
type MockSettingsService struct {
	Settings *domain.AppSettings
	Check    *driving.ProviderCheck
	Err      error
	TestErr  error

	Values   map[string]string
	Provider struct {
		Name                    domain.EmbeddingProviderName
		Model, Endpoint, APIKey string
	}
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Settings == nil {
		s := domain.DefaultAppSettings()
		m.Settings = &s
	}
	return m.Settings, nil
}

func (m *MockSettingsService) Save(settings *domain.AppSettings) error {
	m.Settings = settings
	return m.Err
}

func (m *MockSettingsService) SetEmbeddingProvider(
	provider domain.EmbeddingProviderName, model, endpoint, apiKey string,
) error {
	if m.Err != nil {
		return m.Err
	}
	m.Provider.Name = provider
	m.Provider.Model = model
	m.Provider.Endpoint = endpoint
	m.Provider.APIKey = apiKey

	s, _ := m.Get()
	s.Embedding = domain.ProviderConfig{
		Provider: provider,
		Model:    model,
		Endpoint: endpoint,
		APIKey:   apiKey,
	}.WithDefaults()
	return nil
}

func (m *MockSettingsService) SetValue(key, value string) error {
	if m.Err != nil {
		return m.Err
	}
	if m.Values == nil {
		m.Values = make(map[string]string)
	}
	m.Values[key] = value
	return nil
}

func (m *MockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *MockSettingsService) TestProvider(_ context.Context) (*driving.ProviderCheck, error) {
	if m.TestErr != nil {
		return nil, m.TestErr
	}
	return m.Check, nil
}

// testServices groups the mocks installed by setupTestServices.
type testServices struct {
	Ingest   *MockIngestService
	Queue    *MockQueueService
	Search   *MockSearchService
	Group    *MockGroupService
	Document *MockDocumentService
	Settings *MockSettingsService
}

// setupTestServices installs fresh mocks for every port and returns them
// with a cleanup func restoring the previous services.
func setupTestServices() (*testServices, func()) {
	prev := Services{
		Ingest:     ingestService,
		Queue:      queueService,
		Search:     searchService,
		Group:      groupService,
		Document:   documentService,
		Settings:   settingsService,
		Extractors: extractors,
	}

	ts := &testServices{
		Ingest:   &MockIngestService{},
		Queue:    &MockQueueService{},
		Search:   &MockSearchService{},
		Group:    &MockGroupService{},
		Document: &MockDocumentService{},
		Settings: &MockSettingsService{},
	}
	SetServices(Services{
		Ingest:   ts.Ingest,
		Queue:    ts.Queue,
		Search:   ts.Search,
		Group:    ts.Group,
		Document: ts.Document,
		Settings: ts.Settings,
	})

	return ts, func() { SetServices(prev) }
}

// execute runs rootCmd with args and returns stdout and stderr.
// Flags are reset first since cobra keeps their values between runs.
func execute(args ...string) (stdout, stderr string, err error) {
	return executeWithInput(nil, args...)
}

func executeWithInput(in io.Reader, args ...string) (stdout, stderr string, err error) {
	resetFlags(rootCmd)

	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetIn(in)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
