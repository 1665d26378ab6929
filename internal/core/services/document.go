package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
	"github.com/custodia-labs/ndavault/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// errInterrupted is recorded on tasks that did not survive a restart.
var errInterrupted = errors.New("processing interrupted")

// errTaskSuperseded means another task, possibly in another process, now owns
// the record. The task must leave the record and fragments alone.
var errTaskSuperseded = errors.New("task no longer owns the record")

// DefaultHeartbeat is how often a running task refreshes its record.
const DefaultHeartbeat = 10 * time.Second

// staleHeartbeats is the number of missed heartbeats after which Recover
// treats a task as dead.
const staleHeartbeats = 3

// DocumentService manages uploaded contracts and runs their processing tasks.
//
// Every processing or reprocessing task holds the filename's lease from the
// moment the request is accepted until the task commits or fails, so at most
// one task per document is ever in flight.
type DocumentService struct {
	records   driven.RecordStore
	fragments driven.FragmentStore
	blobs     driven.BlobStore
	extractor driven.TextExtractor
	facts     driven.FactExtractor

	// Optional; without both, fragments are stored without vectors.
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService

	settings  domain.AppSettings
	leases    *LeaseRegistry
	heartbeat time.Duration
	now       func() time.Time
	tasks     sync.WaitGroup
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	records driven.RecordStore,
	fragments driven.FragmentStore,
	blobs driven.BlobStore,
	extractor driven.TextExtractor,
	facts driven.FactExtractor,
	settings domain.AppSettings,
) *DocumentService {
	return &DocumentService{
		records:   records,
		fragments: fragments,
		blobs:     blobs,
		extractor: extractor,
		facts:     facts,
		settings:  settings,
		leases:    NewLeaseRegistry(),
		heartbeat: DefaultHeartbeat,
		now:       time.Now,
	}
}

// SetEmbedding enables vector indexing of fragments.
func (s *DocumentService) SetEmbedding(embeddingService driven.EmbeddingService, vectorIndex driven.VectorIndex) {
	s.embeddingService = embeddingService
	s.vectorIndex = vectorIndex
}

// SetClock replaces the time source.
func (s *DocumentService) SetClock(now func() time.Time) {
	s.now = now
}

// SetHeartbeat changes how often running tasks refresh their record.
// Zero disables the heartbeat.
func (s *DocumentService) SetHeartbeat(d time.Duration) {
	s.heartbeat = d
}

// Leases exposes the lease registry for status reporting.
func (s *DocumentService) Leases() *LeaseRegistry {
	return s.leases
}

// Upload validates and stores a file, then processes it in the background.
func (s *DocumentService) Upload(ctx context.Context, filename string, data []byte) (*domain.DocumentRecord, error) {
	if err := domain.ValidateUpload(filename); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, filename)
	}

	release, err := s.leases.Acquire(filename)
	if err != nil {
		return nil, err
	}

	taskID := uuid.NewString()
	rec, reprocess, err := s.acceptUpload(ctx, filename, taskID, data)
	if err != nil {
		release()
		return nil, err
	}

	logger.Info("Accepted upload %s (%d bytes, reprocess=%t)", filename, len(data), reprocess)
	s.start(ctx, filename, taskID, !reprocess, release)
	return rec, nil
}

// acceptUpload stores the file and creates or resets the record.
// The caller holds the lease.
func (s *DocumentService) acceptUpload(
	ctx context.Context, filename, taskID string, data []byte,
) (*domain.DocumentRecord, bool, error) {
	existing, err := s.records.Get(ctx, filename)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if err := s.blobs.Put(ctx, filename, data); err != nil {
			return nil, false, fmt.Errorf("store %s: %w", filename, err)
		}
		rec := domain.NewDocumentRecord(filename, int64(len(data)), s.now())
		if err := s.records.Create(ctx, rec); err != nil {
			_ = s.blobs.Delete(ctx, filename)
			return nil, false, fmt.Errorf("create record %s: %w", filename, err)
		}
		return rec.Clone(), false, nil

	case err != nil:
		return nil, false, fmt.Errorf("get record %s: %w", filename, err)
	}

	if !existing.ProcessingStatus.CanReprocess() {
		return nil, false, fmt.Errorf("replace %s while %s: %w",
			filename, existing.ProcessingStatus, domain.ErrInvalidTransition)
	}
	if err := s.blobs.Put(ctx, filename, data); err != nil {
		return nil, false, fmt.Errorf("store %s: %w", filename, err)
	}
	rec, err := s.records.Update(ctx, filename, func(r *domain.DocumentRecord) error {
		if err := domain.ValidateTransition(r.ProcessingStatus, domain.StatusReprocessing); err != nil {
			return err
		}
		now := s.now()
		r.ProcessingStatus = domain.StatusReprocessing
		r.Size = int64(len(data))
		r.TaskID = taskID
		r.Heartbeat = &now
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = s.blobs.Delete(ctx, filename)
		}
		return nil, false, fmt.Errorf("replace %s: %w", filename, err)
	}
	return rec, true, nil
}

// Reprocess starts reprocessing a processed or failed document.
func (s *DocumentService) Reprocess(ctx context.Context, filename string) (*domain.DocumentRecord, error) {
	release, err := s.leases.Acquire(filename)
	if err != nil {
		return nil, err
	}

	taskID := uuid.NewString()
	rec, err := s.records.Update(ctx, filename, func(r *domain.DocumentRecord) error {
		if err := domain.ValidateTransition(r.ProcessingStatus, domain.StatusReprocessing); err != nil {
			return err
		}
		now := s.now()
		r.ProcessingStatus = domain.StatusReprocessing
		r.TaskID = taskID
		r.Heartbeat = &now
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		release()
		return nil, fmt.Errorf("reprocess %s: %w", filename, err)
	}

	logger.Info("Reprocessing %s", filename)
	s.start(ctx, filename, taskID, false, release)
	return rec, nil
}

// Delete removes a document in any state.
// An in-flight task notices the missing record at commit and discards its result.
func (s *DocumentService) Delete(ctx context.Context, filename string) error {
	if err := s.records.Delete(ctx, filename); err != nil {
		return fmt.Errorf("delete %s: %w", filename, err)
	}

	frags, err := s.fragments.List(ctx, filename)
	if err != nil {
		logger.Warn("List fragments of deleted %s: %v", filename, err)
	}
	s.dropVectors(ctx, fragmentIDs(frags))
	if err := s.fragments.Delete(ctx, filename); err != nil {
		logger.Warn("Delete fragments of %s: %v", filename, err)
	}
	if err := s.blobs.Delete(ctx, filename); err != nil {
		logger.Warn("Delete file %s: %v", filename, err)
	}

	logger.Info("Deleted %s", filename)
	return nil
}

// Get retrieves a record by filename.
func (s *DocumentService) Get(ctx context.Context, filename string) (*domain.DocumentRecord, error) {
	return s.records.Get(ctx, filename)
}

// List returns all records ordered by filename.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentRecord, error) {
	return s.records.List(ctx)
}

// Fragments returns a document's fragments in position order.
func (s *DocumentService) Fragments(ctx context.Context, filename string) ([]domain.Fragment, error) {
	if _, err := s.records.Get(ctx, filename); err != nil {
		return nil, err
	}
	return s.fragments.List(ctx, filename)
}

// View returns the record with its display state.
func (s *DocumentService) View(ctx context.Context, filename string) (*driving.DocumentView, error) {
	rec, err := s.records.Get(ctx, filename)
	if err != nil {
		return nil, err
	}
	frags, err := s.fragments.List(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("list fragments: %w", err)
	}

	entry := s.classify(rec, s.now())
	return &driving.DocumentView{
		Record:         rec,
		DisplayStatus:  rec.ProcessingStatus.DisplayStatus(),
		Expiration:     entry.Class,
		ExpirationDate: entry.ExpirationDate,
		DaysRemaining:  entry.DaysRemaining,
		FragmentCount:  len(frags),
	}, nil
}

// ExpirationReport classifies every document by its expiration date.
// Entries are ordered by expiration date, undated documents last.
func (s *DocumentService) ExpirationReport(ctx context.Context, now time.Time) (*domain.ExpirationReport, error) {
	recs, err := s.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	report := &domain.ExpirationReport{
		GeneratedAt:   now,
		ThresholdDays: s.settings.Expiration.NearThresholdDays,
		Entries:       make([]domain.ExpirationEntry, 0, len(recs)),
	}
	for i := range recs {
		report.Entries = append(report.Entries, s.classify(&recs[i], now))
	}

	sort.SliceStable(report.Entries, func(i, j int) bool {
		a, b := report.Entries[i].ExpirationDate, report.Entries[j].ExpirationDate
		switch {
		case a == nil && b == nil:
			return report.Entries[i].Filename < report.Entries[j].Filename
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		default:
			return report.Entries[i].Filename < report.Entries[j].Filename
		}
	})
	return report, nil
}

func (s *DocumentService) classify(rec *domain.DocumentRecord, now time.Time) domain.ExpirationEntry {
	entry := domain.ExpirationEntry{
		Filename:       rec.Filename,
		WorkflowStatus: rec.WorkflowStatus,
	}
	if d, ok := rec.ExpirationDate(); ok {
		days := domain.DaysUntil(now, d)
		entry.ExpirationDate = &d
		entry.DaysRemaining = &days
	}
	entry.Class = domain.ClassifyExpiration(now, entry.ExpirationDate, s.settings.Expiration.NearThresholdDays)
	return entry
}

// Wait blocks until all in-flight processing tasks have finished.
func (s *DocumentService) Wait() {
	s.tasks.Wait()
}

// Recover resumes documents left behind by a previous run: pending documents
// are processed again and interrupted tasks are marked failed so they can be
// reprocessed. Records whose task heartbeat is recent belong to a live task,
// possibly in another process, and are skipped. It returns the number of
// records touched.
func (s *DocumentService) Recover(ctx context.Context) (int, error) {
	recs, err := s.records.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list records: %w", err)
	}

	now := s.now()
	staleAfter := s.heartbeat * staleHeartbeats
	touched := 0
	for i := range recs {
		rec := &recs[i]
		if rec.ProcessingStatus != domain.StatusPending && !rec.ProcessingStatus.IsActive() {
			continue
		}
		if now.Sub(rec.LastActivity()) < staleAfter {
			logger.Debug("Skipping %s: task active %s ago", rec.Filename, now.Sub(rec.LastActivity()))
			continue
		}
		release, err := s.leases.Acquire(rec.Filename)
		if err != nil {
			continue // owned by a live task
		}

		if rec.ProcessingStatus == domain.StatusPending {
			logger.Info("Resuming pending %s", rec.Filename)
			s.start(ctx, rec.Filename, uuid.NewString(), true, release)
			touched++
			continue
		}

		if err := s.fail(ctx, rec.Filename, rec.TaskID, errInterrupted); err == nil {
			touched++
		}
		release()
	}
	return touched, nil
}

// start runs the processing task in the background. The task owns release.
// It outlives the request context but keeps its values.
func (s *DocumentService) start(ctx context.Context, filename, taskID string, fresh bool, release func()) {
	taskCtx := context.WithoutCancel(ctx)
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		defer release()
		s.process(taskCtx, filename, taskID, fresh)
	}()
}

// process runs extraction, embedding and fact extraction, then commits.
func (s *DocumentService) process(ctx context.Context, filename, taskID string, fresh bool) {
	if fresh {
		_, err := s.records.Update(ctx, filename, func(r *domain.DocumentRecord) error {
			if err := domain.ValidateTransition(r.ProcessingStatus, domain.StatusProcessing); err != nil {
				return err
			}
			now := s.now()
			r.ProcessingStatus = domain.StatusProcessing
			r.TaskID = taskID
			r.Heartbeat = &now
			r.UpdatedAt = now
			return nil
		})
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Debug("%s deleted before processing started", filename)
				return
			}
			logger.Warn("Start processing %s: %v", filename, err)
			return
		}
	}

	logger.Section("Processing " + filename)
	started := s.now()
	stop := s.keepAlive(ctx, filename, taskID)
	defer stop()

	result, err := s.run(ctx, filename)
	if err != nil {
		logger.Warn("Processing %s failed: %v", filename, err)
		_ = s.fail(ctx, filename, taskID, err)
		return
	}

	if err := s.commit(ctx, filename, taskID, result); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			logger.Info("%s was deleted during processing, result discarded", filename)
			return
		case errors.Is(err, errTaskSuperseded):
			logger.Warn("%s was taken over by another task, result discarded", filename)
			return
		}
		logger.Warn("Commit %s failed: %v", filename, err)
		_ = s.fail(ctx, filename, taskID, err)
		return
	}
	logger.Info("Processed %s: %d fragments, %d facts in %s",
		filename, len(result.fragments), len(result.facts), s.now().Sub(started).Round(time.Millisecond))
}

// taskResult is the output of a processing run before commit.
type taskResult struct {
	fragments []domain.Fragment
	facts     map[string]string
	vectors   bool
}

func (s *DocumentService) run(ctx context.Context, filename string) (*taskResult, error) {
	data, err := s.blobs.Get(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	extraction, err := s.extractor.Extract(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	if len(extraction.Fragments) == 0 {
		return nil, fmt.Errorf("%w: no text in %s", domain.ErrExtractionFailed, filename)
	}
	logger.Debug("Extracted %d fragments from %s", len(extraction.Fragments), filename)

	result := &taskResult{fragments: extraction.Fragments}

	if s.embeddingService != nil && s.vectorIndex != nil {
		if err := s.embed(ctx, result.fragments); err != nil {
			return nil, err
		}
		result.vectors = true
	}

	result.facts, err = s.extractFacts(ctx, extraction.Text)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// embed fills in fragment embeddings with bounded concurrency.
func (s *DocumentService) embed(ctx context.Context, frags []domain.Fragment) error {
	g, gctx := errgroup.WithContext(ctx)
	limit := s.settings.Processing.EmbedConcurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i := range frags {
		g.Go(func() error {
			vec, err := s.embeddingService.Embed(gctx, frags[i].Content)
			if err != nil {
				return fmt.Errorf("embed fragment %d: %w", frags[i].Position, err)
			}
			frags[i].Embedding = vec
			return nil
		})
	}
	return g.Wait()
}

func (s *DocumentService) extractFacts(ctx context.Context, text string) (map[string]string, error) {
	timeout := s.settings.Processing.FactTimeout
	if timeout <= 0 {
		timeout = domain.DefaultAppSettings().Processing.FactTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Debug("Extracting facts with %s", s.facts.Name())
	facts, err := s.facts.ExtractFacts(ctx, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("fact extraction: %w: %w", domain.ErrOracleTimeout, err)
		}
		return nil, fmt.Errorf("fact extraction: %w", err)
	}
	if facts == nil {
		facts = make(map[string]string)
	}
	return facts, nil
}

// keepAlive refreshes the record heartbeat until stop is called or the task
// loses ownership of the record.
func (s *DocumentService) keepAlive(ctx context.Context, filename, taskID string) (stop func()) {
	if s.heartbeat <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			_, err := s.records.Update(ctx, filename, func(r *domain.DocumentRecord) error {
				if r.TaskID != taskID {
					return errTaskSuperseded
				}
				now := s.now()
				r.Heartbeat = &now
				return nil
			})
			if err != nil {
				logger.Debug("Heartbeat for %s stopped: %v", filename, err)
				return
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// owns reports domain.ErrNotFound or errTaskSuperseded when the task no
// longer owns the record.
func (s *DocumentService) owns(ctx context.Context, filename, taskID string) error {
	rec, err := s.records.Get(ctx, filename)
	if err != nil {
		return err
	}
	if rec.TaskID != taskID || !rec.ProcessingStatus.IsActive() {
		return errTaskSuperseded
	}
	return nil
}

// commit publishes the task result. New vectors go in first, then fragments
// replace the old set, then the record moves to processed, provided the task
// still owns it. A missing record means the document was deleted mid-flight:
// everything written is removed and domain.ErrNotFound is returned. Any other
// failure of the record update puts the previous fragments back.
func (s *DocumentService) commit(ctx context.Context, filename, taskID string, result *taskResult) error {
	if err := s.owns(ctx, filename, taskID); err != nil {
		return err
	}

	old, err := s.fragments.List(ctx, filename)
	if err != nil {
		return fmt.Errorf("list fragments: %w", err)
	}
	newIDs := fragmentIDs(result.fragments)

	if result.vectors {
		for i := range result.fragments {
			if err := s.vectorIndex.Add(ctx, result.fragments[i].ID, result.fragments[i].Embedding); err != nil {
				s.dropVectors(ctx, newIDs)
				return fmt.Errorf("index vectors: %w", err)
			}
		}
	}

	if err := s.fragments.Replace(ctx, filename, result.fragments); err != nil {
		s.dropVectors(ctx, newIDs)
		return fmt.Errorf("store fragments: %w", err)
	}

	_, err = s.records.Update(ctx, filename, func(r *domain.DocumentRecord) error {
		if r.TaskID != taskID {
			return errTaskSuperseded
		}
		if err := domain.ValidateTransition(r.ProcessingStatus, domain.StatusProcessed); err != nil {
			return err
		}
		now := s.now()
		r.ProcessingStatus = domain.StatusProcessed
		r.Facts = result.facts
		r.LastError = ""
		r.ProcessedAt = &now
		r.UpdatedAt = now
		r.TaskID = ""
		r.Heartbeat = nil
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		if delErr := s.fragments.Delete(ctx, filename); delErr != nil {
			logger.Warn("Clean up fragments of deleted %s: %v", filename, delErr)
		}
		s.dropVectors(ctx, newIDs)
		return err
	}
	if err != nil {
		if restoreErr := s.fragments.Replace(ctx, filename, old); restoreErr != nil {
			logger.Error("Restore fragments of %s: %v", filename, restoreErr)
		}
		s.dropVectors(ctx, staleIDs(result.fragments, fragmentIDs(old)))
		if errors.Is(err, errTaskSuperseded) {
			return err
		}
		return fmt.Errorf("update record: %w", err)
	}

	s.dropVectors(ctx, staleIDs(old, newIDs))
	return nil
}

// fail moves the record to failed, keeping its previous facts. Only the
// task owning the record may fail it.
func (s *DocumentService) fail(ctx context.Context, filename, taskID string, cause error) error {
	_, err := s.records.Update(ctx, filename, func(r *domain.DocumentRecord) error {
		if r.TaskID != taskID {
			return errTaskSuperseded
		}
		if err := domain.ValidateTransition(r.ProcessingStatus, domain.StatusFailed); err != nil {
			return err
		}
		r.ProcessingStatus = domain.StatusFailed
		r.LastError = cause.Error()
		r.UpdatedAt = s.now()
		r.TaskID = ""
		r.Heartbeat = nil
		return nil
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Debug("%s deleted before failure was recorded", filename)
	case errors.Is(err, errTaskSuperseded):
		logger.Debug("%s is owned by another task, failure not recorded", filename)
	case err != nil:
		logger.Error("Record failure of %s: %v", filename, err)
	}
	return err
}

func (s *DocumentService) dropVectors(ctx context.Context, ids []string) {
	if s.vectorIndex == nil || len(ids) == 0 {
		return
	}
	if err := s.vectorIndex.Delete(ctx, ids); err != nil {
		logger.Warn("Delete %d vectors: %v", len(ids), err)
	}
}

// staleIDs returns the IDs of old fragments not reused by the new set.
func staleIDs(old []domain.Fragment, keep []string) []string {
	kept := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		kept[id] = struct{}{}
	}
	var out []string
	for i := range old {
		if _, ok := kept[old[i].ID]; !ok {
			out = append(out, old[i].ID)
		}
	}
	return out
}

func fragmentIDs(frags []domain.Fragment) []string {
	ids := make([]string, len(frags))
	for i := range frags {
		ids[i] = frags[i].ID
	}
	return ids
}
