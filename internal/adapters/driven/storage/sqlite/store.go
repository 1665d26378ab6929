package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ndavault/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ndavault/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
)

// dbFile is the database file name inside the data directory.
const dbFile = "ndavault.db"

// timeLayout is a fixed-width UTC layout so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// maxParams bounds the number of IN (...) parameters per query.
const maxParams = 500

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.ndavault/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ndavault", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection serialises writers, so read-modify-write transactions
	// never hit SQLITE_BUSY lock upgrades.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RecordStore returns a RecordStore backed by this store.
func (s *Store) RecordStore() driven.RecordStore {
	return &recordStore{store: s}
}

// FragmentStore returns a FragmentStore backed by this store.
func (s *Store) FragmentStore() driven.FragmentStore {
	return &fragmentStore{store: s}
}

// VectorIndex returns a VectorIndex backed by this store.
func (s *Store) VectorIndex() driven.VectorIndex {
	return &vectorIndex{store: s}
}

// SchedulerStore returns a SchedulerStore backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending schema migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Record Store ====================

// recordStore implements driven.RecordStore.
type recordStore struct {
	store *Store
}

var _ driven.RecordStore = (*recordStore)(nil)

const recordColumns = `filename, processing_status, workflow_status, facts, last_error,
	size, created_at, updated_at, processed_at, task_id, heartbeat_at`

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Create stores a new record.
func (s *recordStore) Create(ctx context.Context, rec *domain.DocumentRecord) error {
	if rec == nil {
		return domain.ErrInvalidInput
	}
	facts, err := marshalFacts(rec.Facts)
	if err != nil {
		return err
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO NOTHING
	`, rec.Filename, string(rec.ProcessingStatus), string(rec.WorkflowStatus), facts,
		nullString(rec.LastError), rec.Size, formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
		formatNullableTimePtr(rec.ProcessedAt), nullString(rec.TaskID), formatNullableTimePtr(rec.Heartbeat))
	if err != nil {
		return fmt.Errorf("creating record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("record %s: %w", rec.Filename, domain.ErrAlreadyExists)
	}
	return nil
}

// Get retrieves a record by filename.
func (s *recordStore) Get(ctx context.Context, filename string) (*domain.DocumentRecord, error) {
	return getRecord(ctx, s.store.db, filename)
}

func getRecord(ctx context.Context, q querier, filename string) (*domain.DocumentRecord, error) {
	row := q.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE filename = ?`, filename)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", filename, domain.ErrNotFound)
	}
	return rec, err
}

// List returns all records ordered by filename.
func (s *recordStore) List(ctx context.Context) ([]domain.DocumentRecord, error) {
	return listRecords(ctx, s.store.db)
}

func listRecords(ctx context.Context, q querier) ([]domain.DocumentRecord, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+recordColumns+` FROM records ORDER BY filename`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var recs []domain.DocumentRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return recs, nil
}

// Update applies fn to the record inside a transaction.
func (s *recordStore) Update(
	ctx context.Context, filename string, fn func(rec *domain.DocumentRecord) error,
) (*domain.DocumentRecord, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := getRecord(ctx, tx, filename)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	rec.Filename = filename
	if err := saveRecord(ctx, tx, rec); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing record update: %w", err)
	}
	return rec, nil
}

func saveRecord(ctx context.Context, q querier, rec *domain.DocumentRecord) error {
	facts, err := marshalFacts(rec.Facts)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		UPDATE records SET
			processing_status = ?, workflow_status = ?, facts = ?, last_error = ?,
			size = ?, created_at = ?, updated_at = ?, processed_at = ?,
			task_id = ?, heartbeat_at = ?
		WHERE filename = ?
	`, string(rec.ProcessingStatus), string(rec.WorkflowStatus), facts, nullString(rec.LastError),
		rec.Size, formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
		formatNullableTimePtr(rec.ProcessedAt), nullString(rec.TaskID),
		formatNullableTimePtr(rec.Heartbeat), rec.Filename)
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}
	return nil
}

// Delete removes a record.
func (s *recordStore) Delete(ctx context.Context, filename string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM records WHERE filename = ?", filename)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("record %s: %w", filename, domain.ErrNotFound)
	}
	return nil
}

// RunDataMigration applies fn to every record once per name.
func (s *recordStore) RunDataMigration(
	ctx context.Context, name string, fn func(rec *domain.DocumentRecord) bool,
) (bool, int, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM data_migrations WHERE name = ?", name).Scan(&exists)
	switch {
	case err == nil:
		return false, 0, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, 0, fmt.Errorf("checking data migration %s: %w", name, err)
	}

	recs, err := listRecords(ctx, tx)
	if err != nil {
		return false, 0, err
	}
	changed := 0
	for i := range recs {
		if !fn(&recs[i]) {
			continue
		}
		if err := saveRecord(ctx, tx, &recs[i]); err != nil {
			return false, 0, err
		}
		changed++
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO data_migrations (name, applied_at) VALUES (?, ?)",
		name, formatTime(time.Now())); err != nil {
		return false, 0, fmt.Errorf("recording data migration %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("committing data migration %s: %w", name, err)
	}
	return true, changed, nil
}

// ==================== Fragment Store ====================

// fragmentStore implements driven.FragmentStore.
type fragmentStore struct {
	store *Store
}

var _ driven.FragmentStore = (*fragmentStore)(nil)

// Replace swaps a document's fragments in one transaction.
func (s *fragmentStore) Replace(ctx context.Context, filename string, fragments []domain.Fragment) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM fragments WHERE filename = ?", filename); err != nil {
		return fmt.Errorf("clearing fragments: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fragments (id, filename, position, content) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			position = excluded.position,
			content = excluded.content
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range fragments {
		if _, err := stmt.ExecContext(ctx, fragments[i].ID, filename,
			fragments[i].Position, fragments[i].Content); err != nil {
			return fmt.Errorf("saving fragment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing fragments: %w", err)
	}
	return nil
}

// List returns a document's fragments in position order.
func (s *fragmentStore) List(ctx context.Context, filename string) ([]domain.Fragment, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, filename, position, content FROM fragments
		WHERE filename = ? ORDER BY position, id
	`, filename)
	if err != nil {
		return nil, fmt.Errorf("querying fragments: %w", err)
	}
	defer rows.Close()
	return scanFragments(rows)
}

// ListAll returns the fragments of the named documents, or of all documents
// when filenames is empty, ordered by filename then position.
func (s *fragmentStore) ListAll(ctx context.Context, filenames []string) ([]domain.Fragment, error) {
	if len(filenames) == 0 {
		rows, err := s.store.db.QueryContext(ctx, `
			SELECT id, filename, position, content FROM fragments
			ORDER BY filename, position, id
		`)
		if err != nil {
			return nil, fmt.Errorf("querying fragments: %w", err)
		}
		defer rows.Close()
		return scanFragments(rows)
	}

	names := dedupe(filenames)
	var out []domain.Fragment
	for _, batch := range batches(names, maxParams) {
		rows, err := s.store.db.QueryContext(ctx, `
			SELECT id, filename, position, content FROM fragments
			WHERE filename IN (`+placeholders(len(batch))+`)
		`, toArgs(batch)...)
		if err != nil {
			return nil, fmt.Errorf("querying fragments: %w", err)
		}
		frags, err := scanFragments(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, frags...)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Filename != out[j].Filename {
			return out[i].Filename < out[j].Filename
		}
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete removes all fragments of a document.
func (s *fragmentStore) Delete(ctx context.Context, filename string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM fragments WHERE filename = ?", filename); err != nil {
		return fmt.Errorf("deleting fragments: %w", err)
	}
	return nil
}

// ==================== Vector Index ====================

// vectorIndex implements driven.VectorIndex with brute-force cosine scoring.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Add inserts or replaces the vector for a fragment.
func (v *vectorIndex) Add(ctx context.Context, fragmentID string, embedding []float32) error {
	_, err := v.store.db.ExecContext(ctx, `
		INSERT INTO fragment_vectors (fragment_id, embedding) VALUES (?, ?)
		ON CONFLICT(fragment_id) DO UPDATE SET embedding = excluded.embedding
	`, fragmentID, float32SliceToBytes(embedding))
	if err != nil {
		return fmt.Errorf("saving vector: %w", err)
	}
	return nil
}

// Delete removes vectors.
func (v *vectorIndex) Delete(ctx context.Context, fragmentIDs []string) error {
	for _, batch := range batches(fragmentIDs, maxParams) {
		if _, err := v.store.db.ExecContext(ctx,
			"DELETE FROM fragment_vectors WHERE fragment_id IN ("+placeholders(len(batch))+")",
			toArgs(batch)...); err != nil {
			return fmt.Errorf("deleting vectors: %w", err)
		}
	}
	return nil
}

// Similar scores candidates against the query. Candidates without a vector
// are omitted; an empty candidate list scores every stored vector.
func (v *vectorIndex) Similar(
	ctx context.Context, query []float32, candidateIDs []string,
) (map[string]float64, error) {
	out := make(map[string]float64)

	score := func(rows *sql.Rows) error {
		defer rows.Close()
		for rows.Next() {
			var id string
			var blob []byte
			if err := rows.Scan(&id, &blob); err != nil {
				return fmt.Errorf("scanning vector: %w", err)
			}
			out[id] = vecmath.Cosine(query, bytesToFloat32Slice(blob))
		}
		return rows.Err()
	}

	if len(candidateIDs) == 0 {
		rows, err := v.store.db.QueryContext(ctx, "SELECT fragment_id, embedding FROM fragment_vectors")
		if err != nil {
			return nil, fmt.Errorf("querying vectors: %w", err)
		}
		if err := score(rows); err != nil {
			return nil, err
		}
		return out, nil
	}

	for _, batch := range batches(candidateIDs, maxParams) {
		rows, err := v.store.db.QueryContext(ctx,
			"SELECT fragment_id, embedding FROM fragment_vectors WHERE fragment_id IN ("+
				placeholders(len(batch))+")", toArgs(batch)...)
		if err != nil {
			return nil, fmt.Errorf("querying vectors: %w", err)
		}
		if err := score(rows); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Count returns the number of stored vectors.
func (v *vectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fragment_vectors").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return n, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return []byte{}
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord scans a record row. sql.ErrNoRows is returned unwrapped.
func scanRecord(row scanner) (*domain.DocumentRecord, error) {
	var rec domain.DocumentRecord
	var processing, workflow, factsJSON, createdAt, updatedAt string
	var lastError, processedAt, taskID, heartbeat sql.NullString

	if err := row.Scan(&rec.Filename, &processing, &workflow, &factsJSON, &lastError,
		&rec.Size, &createdAt, &updatedAt, &processedAt, &taskID, &heartbeat); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	rec.ProcessingStatus = domain.ProcessingStatus(processing)
	rec.WorkflowStatus = domain.WorkflowStatus(workflow)
	rec.Facts = make(map[string]string)
	if factsJSON != "" {
		if err := json.Unmarshal([]byte(factsJSON), &rec.Facts); err != nil {
			return nil, fmt.Errorf("unmarshalling facts: %w", err)
		}
	}
	if lastError.Valid {
		rec.LastError = lastError.String
	}
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	if t := parseNullableTime(processedAt); !t.IsZero() {
		rec.ProcessedAt = &t
	}
	rec.TaskID = taskID.String
	if t := parseNullableTime(heartbeat); !t.IsZero() {
		rec.Heartbeat = &t
	}
	return &rec, nil
}

func scanFragments(rows *sql.Rows) ([]domain.Fragment, error) {
	var frags []domain.Fragment //nolint:prealloc // size unknown from query
	for rows.Next() {
		var f domain.Fragment
		if err := rows.Scan(&f.ID, &f.Filename, &f.Position, &f.Content); err != nil {
			return nil, fmt.Errorf("scanning fragment: %w", err)
		}
		frags = append(frags, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fragments: %w", err)
	}
	return frags, nil
}

func marshalFacts(facts map[string]string) (string, error) {
	if len(facts) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(facts)
	if err != nil {
		return "", fmt.Errorf("marshalling facts: %w", err)
	}
	return string(b), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatNullableTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatNullableTime(*t)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func batches(values []string, size int) [][]string {
	var out [][]string
	for len(values) > size {
		out = append(out, values[:size])
		values = values[size:]
	}
	if len(values) > 0 {
		out = append(out, values)
	}
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
