package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vectorlite-cli/internal/logger"
	"github.com/custodia-labs/vectorlite-cli/internal/validation"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// documentKeyPrefix prefixes the opaque key of every document.
const documentKeyPrefix = "doc_"

// IngestService chunks text into segments and queues embedding work.
type IngestService struct {
	docStore   driven.DocumentStore
	groupStore driven.GroupStore
	pipeline   driven.PostProcessorPipeline
	extractors driven.ExtractorRegistry
}

// NewIngestService creates a new ingest service.
// extractors is optional; without it IngestFile is unavailable.
func NewIngestService(
	docStore driven.DocumentStore,
	groupStore driven.GroupStore,
	pipeline driven.PostProcessorPipeline,
	extractors driven.ExtractorRegistry,
) *IngestService {
	return &IngestService{
		docStore:   docStore,
		groupStore: groupStore,
		pipeline:   pipeline,
		extractors: extractors,
	}
}

// Ingest chunks the text, then stores the document, replaces its segments
// and queues one pending entry per segment in a single store write.
// Embedding happens later, when the queue is drained, so ingest succeeds
// even with no provider configured.
func (s *IngestService) Ingest(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	logger.Section("Ingest")
	defer logger.Timer("ingest")()

	req.Title = strings.TrimSpace(req.Title)
	req.FileType = strings.ToLower(strings.TrimSpace(req.FileType))
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.OnDuplicate == "" {
		req.OnDuplicate = driving.DuplicateReplace
	}

	// 1. Resolve groups
	groups, err := s.resolveGroups(ctx, req.Groups)
	if err != nil {
		return nil, err
	}

	// 2. Find or create the document
	existing, err := s.docStore.FindDocument(ctx, req.Title, req.FileType)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find document: %w", err)
	}

	result := &driving.IngestResult{}
	var doc *domain.Document

	if existing != nil {
		if req.OnDuplicate == driving.DuplicateSkip {
			logger.Debug("Duplicate %q (%s), skipping", req.Title, req.FileType)
			segs, err := s.docStore.GetSegments(ctx, existing.ID)
			if err != nil {
				return nil, fmt.Errorf("get segments: %w", err)
			}
			return &driving.IngestResult{
				DocumentID:   existing.ID,
				Key:          existing.Key,
				SegmentCount: len(segs),
				Skipped:      true,
			}, nil
		}

		logger.Debug("Duplicate %q (%s), replacing document %d", req.Title, req.FileType, existing.ID)
		doc = existing
		doc.Content = req.Content
		doc.Size = req.Size
		doc.UpdatedAt = time.Now()
		if len(req.Groups) > 0 {
			doc.Groups = domain.MergeGroups(existing.Groups, groups)
		}
		result.Replaced = true
	} else {
		doc = &domain.Document{
			Key:      documentKeyPrefix + uuid.NewString(),
			Title:    req.Title,
			Content:  req.Content,
			FileType: req.FileType,
			Size:     req.Size,
			Groups:   groups,
		}
	}

	// 3. Chunk and count tokens
	segments, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("process document: %w", err)
	}

	// 4. Save the document with its segments and queue entries
	saved, err := s.docStore.SaveDocument(ctx, doc, segments)
	if err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	logger.Debug("Saved document %d (%s) in groups %v, queued %d segments", doc.ID, doc.Key, doc.Groups, len(saved))

	result.DocumentID = doc.ID
	result.Key = doc.Key
	result.SegmentCount = len(saved)
	return result, nil
}

// IngestFile extracts a file's text and ingests it. The title is the
// file name without its extension and the file type is the lowercased
// extension. When the extension is missing or unsupported the content
// is sniffed instead.
func (s *IngestService) IngestFile(
	ctx context.Context, path string, groups []string, policy driving.DuplicatePolicy,
) (*driving.IngestResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	title, fileType := SplitFileName(path)
	if s.extractors == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, fileType)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if !s.extractors.Supports(fileType) {
		detected := s.extractors.Detect(data)
		if detected == "" {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, fileType)
		}
		logger.Debug("No extractor for %q, content sniffs as %s", fileType, detected)
		fileType = detected
	}

	text, err := s.extractors.Extract(ctx, fileType, data)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}
	logger.Debug("Extracted %d characters from %s", len(text), path)

	return s.Ingest(ctx, driving.IngestRequest{
		Title:       title,
		FileType:    fileType,
		Content:     text,
		Size:        info.Size(),
		Groups:      groups,
		OnDuplicate: policy,
	})
}

// SplitFileName returns the title and lowercased file type of path.
func SplitFileName(path string) (title, fileType string) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext), strings.ToLower(strings.TrimPrefix(ext, "."))
}

// resolveGroups normalises names and checks that each group exists.
func (s *IngestService) resolveGroups(ctx context.Context, names []string) ([]string, error) {
	groups := domain.NormaliseGroups(names)
	for _, name := range groups {
		if _, err := s.groupStore.GetGroup(ctx, name); err != nil {
			return nil, fmt.Errorf("group %q: %w", name, err)
		}
	}
	return groups, nil
}
