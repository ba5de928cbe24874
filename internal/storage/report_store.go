package storage

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"civic-assist/internal/models"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // Import sqlite3 driver
)

func init() {
	sqlite_vec.Auto()
}

// ReportStore persists citizen reports in SQLite, with a sqlite-vec
// virtual table over report embeddings for similar-report lookups.
//
// The schema deliberately keeps the historical ownership drift:
// created_by is canonical for new writes, but user_id, submitted_by
// and the nested owner_json object all exist for older records and are
// queryable via ReportsByOwnerField.
type ReportStore struct {
	db *sql.DB
}

// NewReportStore opens (and if needed initializes) a report database.
func NewReportStore(dsn string) (*ReportStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &ReportStore{db: db}

	if err := store.initDB(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *ReportStore) initDB() error {
	query := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		category TEXT,
		status TEXT,
		priority TEXT,
		location TEXT,
		coordinates TEXT,
		description TEXT,
		assignee TEXT,
		created_by TEXT,
		user_id TEXT,
		submitted_by TEXT,
		owner_json TEXT,
		created_at TEXT NOT NULL,
		updates_json TEXT
	);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create reports table: %w", err)
	}

	// vec_reports is created lazily on the first embedded insert, when
	// the embedding dimension is known.

	return nil
}

// Close closes the database connection.
func (s *ReportStore) Close() error {
	return s.db.Close()
}

// serializeFloat32Vector converts a float32 slice to the byte format
// expected by sqlite-vec.
func serializeFloat32Vector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(v))
	}
	return buf
}

func (s *ReportStore) vecTableExists() (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='vec_reports'").Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check vec_reports existence: %w", err)
	}
	return count > 0, nil
}

func (s *ReportStore) ensureVecTableExists(embeddingLen int) error {
	exists, err := s.vecTableExists()
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	vecQuery := fmt.Sprintf(`
		CREATE VIRTUAL TABLE vec_reports USING vec0(
			id TEXT PRIMARY KEY,
			embedding FLOAT[%d]
		)
	`, embeddingLen)

	if _, err := s.db.Exec(vecQuery); err != nil {
		return fmt.Errorf("failed to create vec_reports table: %w", err)
	}

	return nil
}

// Add stores a new report. A missing ID is generated; a zero CreatedAt
// is set to the current time; CreatedBy canonical ownership is left to
// the caller. The embedding, when present, is indexed for
// similar-report lookups.
func (s *ReportStore) Add(r *models.Report) error {
	if r.ID == uuid.Nil {
		newID, err := uuid.NewUUID()
		if err != nil {
			return fmt.Errorf("failed to generate UUID: %w", err)
		}
		r.ID = newID
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	if len(r.Embedding) > 0 {
		if err := s.ensureVecTableExists(len(r.Embedding)); err != nil {
			return fmt.Errorf("failed to ensure vec table exists: %w", err)
		}
	}

	ownerJSON, err := marshalOwner(r.User)
	if err != nil {
		return err
	}
	updatesJSON, err := marshalUpdates(r.Updates)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO reports (
			id, title, category, status, priority, location, coordinates,
			description, assignee, created_by, user_id, submitted_by,
			owner_json, created_at, updates_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.Exec(query,
		r.ID.String(), r.Title, r.Category, r.Status, r.Priority,
		r.Location, r.Coordinates, r.Description, r.Assignee,
		r.CreatedBy, r.UserID, r.SubmittedBy, ownerJSON,
		r.CreatedAt.UTC().Format(time.RFC3339), updatesJSON,
	); err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	if len(r.Embedding) > 0 {
		embeddingBytes := serializeFloat32Vector(r.Embedding)
		if _, err := tx.Exec(`INSERT INTO vec_reports (id, embedding) VALUES (?, ?)`, r.ID.String(), embeddingBytes); err != nil {
			return fmt.Errorf("failed to insert report vector: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

const reportColumns = `id, title, category, status, priority, location, coordinates,
	description, assignee, created_by, user_id, submitted_by, owner_json,
	created_at, updates_json`

// ErrNotFound is returned when a report id does not exist.
var ErrNotFound = errors.New("report not found")

// Get returns a single report by id.
func (s *ReportStore) Get(id uuid.UUID) (*models.Report, error) {
	row := s.db.QueryRow(`SELECT `+reportColumns+` FROM reports WHERE id = ?`, id.String())
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

// List returns all reports, newest first.
func (s *ReportStore) List() ([]models.Report, error) {
	return s.queryReports(`SELECT ` + reportColumns + ` FROM reports ORDER BY created_at DESC`)
}

// AppendUpdate appends a status update to a report's history and sets
// the report's current status.
func (s *ReportStore) AppendUpdate(id uuid.UUID, upd models.ReportUpdate) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var updatesJSON sql.NullString
	err = tx.QueryRow(`SELECT updates_json FROM reports WHERE id = ?`, id.String()).Scan(&updatesJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	var updates []models.ReportUpdate
	if updatesJSON.Valid && updatesJSON.String != "" {
		if err := json.Unmarshal([]byte(updatesJSON.String), &updates); err != nil {
			return fmt.Errorf("failed to decode update history: %w", err)
		}
	}
	updates = append(updates, upd)

	encoded, err := json.Marshal(updates)
	if err != nil {
		return fmt.Errorf("failed to encode update history: %w", err)
	}

	if _, err := tx.Exec(`UPDATE reports SET status = ?, updates_json = ? WHERE id = ?`,
		upd.Status, string(encoded), id.String()); err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SearchKeywords returns reports matching any of the keywords by
// substring against title, description, category or location, newest
// first. An empty keyword list matches nothing; callers fall back to
// the raw query string instead.
func (s *ReportStore) SearchKeywords(keywords []string, limit int) ([]models.Report, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var clauses []string
	var args []interface{}
	for _, kw := range keywords {
		clauses = append(clauses, `(lower(title) LIKE '%' || ? || '%'
			OR lower(description) LIKE '%' || ? || '%'
			OR lower(category) LIKE '%' || ? || '%'
			OR lower(location) LIKE '%' || ? || '%')`)
		kw = strings.ToLower(kw)
		args = append(args, kw, kw, kw, kw)
	}
	args = append(args, limit)

	query := `SELECT ` + reportColumns + ` FROM reports WHERE ` +
		strings.Join(clauses, " OR ") +
		` ORDER BY created_at DESC LIMIT ?`

	return s.queryReports(query, args...)
}

// ownerFieldExprs maps the probe field names to SQL expressions. The
// nested pair reads the legacy owner_json object.
var ownerFieldExprs = map[string]string{
	"created_by":   "created_by",
	"user_id":      "user_id",
	"submitted_by": "submitted_by",
	"user.uid":     "json_extract(owner_json, '$.uid')",
	"user.id":      "json_extract(owner_json, '$.id')",
}

// ReportsByOwnerField returns the reports whose given ownership field
// equals the value, newest first. The field must be one of the known
// probe names.
func (s *ReportStore) ReportsByOwnerField(field, value string) ([]models.Report, error) {
	expr, ok := ownerFieldExprs[field]
	if !ok {
		return nil, fmt.Errorf("unknown ownership field %q", field)
	}

	query := `SELECT ` + reportColumns + ` FROM reports WHERE ` + expr + ` = ? ORDER BY created_at DESC`
	return s.queryReports(query, value)
}

// SimilarReports performs a KNN lookup over report embeddings and
// returns the nearest reports, excluding the given id (uuid.Nil
// excludes nothing). Reports stored without an embedding are not
// candidates.
func (s *ReportStore) SimilarReports(embedding []float32, topK int, exclude uuid.UUID) ([]models.Report, error) {
	exists, err := s.vecTableExists()
	if err != nil {
		return nil, err
	}
	if !exists {
		// No embedded report has ever been stored.
		return nil, nil
	}

	embeddingBytes := serializeFloat32Vector(embedding)

	// sqlite-vec requires k inside the MATCH expression.
	query := `
		SELECT ` + prefixColumns("r") + `
		FROM vec_reports v
		JOIN reports r ON r.id = v.id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`

	results, err := s.queryReports(query, embeddingBytes, topK+1)
	if err != nil {
		return nil, fmt.Errorf("failed to perform vector search: %w", err)
	}

	var filtered []models.Report
	for _, r := range results {
		if exclude != uuid.Nil && r.ID == exclude {
			continue
		}
		filtered = append(filtered, r)
		if len(filtered) >= topK {
			break
		}
	}
	return filtered, nil
}

func prefixColumns(alias string) string {
	cols := strings.Split(reportColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *ReportStore) queryReports(query string, args ...interface{}) ([]models.Report, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reports []models.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			log.Printf("Error scanning report row: %v", err)
			continue
		}
		reports = append(reports, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return reports, nil
}

func scanReport(row rowScanner) (*models.Report, error) {
	var (
		id, title, createdAt                            string
		category, status, priority, location            sql.NullString
		coordinates, description, assignee              sql.NullString
		createdBy, userID, submittedBy                  sql.NullString
		ownerJSON, updatesJSON                          sql.NullString
	)

	if err := row.Scan(&id, &title, &category, &status, &priority,
		&location, &coordinates, &description, &assignee,
		&createdBy, &userID, &submittedBy, &ownerJSON,
		&createdAt, &updatesJSON); err != nil {
		return nil, err
	}

	reportID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid report id %s: %w", id, err)
	}

	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at for report %s: %w", id, err)
	}

	r := &models.Report{
		ID:          reportID,
		Title:       title,
		Category:    category.String,
		Status:      status.String,
		Priority:    priority.String,
		Location:    location.String,
		Coordinates: coordinates.String,
		Description: description.String,
		Assignee:    assignee.String,
		CreatedBy:   createdBy.String,
		UserID:      userID.String,
		SubmittedBy: submittedBy.String,
		CreatedAt:   ts,
	}

	if ownerJSON.Valid && ownerJSON.String != "" {
		var owner models.OwnerRef
		if err := json.Unmarshal([]byte(ownerJSON.String), &owner); err == nil {
			if owner.UID != "" || owner.ID != "" {
				r.User = &owner
			}
		} else {
			log.Printf("Error decoding owner for report %s: %v", id, err)
		}
	}

	if updatesJSON.Valid && updatesJSON.String != "" {
		if err := json.Unmarshal([]byte(updatesJSON.String), &r.Updates); err != nil {
			log.Printf("Error decoding updates for report %s: %v", id, err)
		}
	}

	return r, nil
}

func marshalOwner(owner *models.OwnerRef) (string, error) {
	if owner == nil {
		return "", nil
	}
	encoded, err := json.Marshal(owner)
	if err != nil {
		return "", fmt.Errorf("failed to encode owner: %w", err)
	}
	return string(encoded), nil
}

func marshalUpdates(updates []models.ReportUpdate) (string, error) {
	if len(updates) == 0 {
		return "", nil
	}
	encoded, err := json.Marshal(updates)
	if err != nil {
		return "", fmt.Errorf("failed to encode updates: %w", err)
	}
	return string(encoded), nil
}
