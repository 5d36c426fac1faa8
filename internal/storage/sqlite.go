package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database with methods for interviews, questions,
// responses, and analyses.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "intervu.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		// Check if already applied.
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Interviews ---

// CreateInterview inserts an interview and its questions in generation order
// as one transaction. Either all rows become visible or none do.
func (s *Store) CreateInterview(vacancyInfo string, questions []string) (string, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)

	if _, err := tx.Exec(`
		INSERT INTO interviews (id, vacancy_info, created_at) VALUES (?, ?, ?)`,
		id, vacancyInfo, now,
	); err != nil {
		return "", fmt.Errorf("inserting interview: %w", err)
	}

	for i, text := range questions {
		if _, err := tx.Exec(`
			INSERT INTO questions (id, interview_id, position, question_text) VALUES (?, ?, ?, ?)`,
			uuid.New().String(), id, i, text,
		); err != nil {
			return "", fmt.Errorf("inserting question %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing interview: %w", err)
	}
	return id, nil
}

// GetInterview returns an interview and its questions in generation order.
// Returns ErrNotFound when no interview with that id exists.
func (s *Store) GetInterview(id string) (Interview, []Question, error) {
	var iv Interview
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, vacancy_info, created_at FROM interviews WHERE id = ?`, id,
	).Scan(&iv.ID, &iv.VacancyInfo, &createdAt)
	if err == sql.ErrNoRows {
		return Interview{}, nil, ErrNotFound
	}
	if err != nil {
		return Interview{}, nil, err
	}
	if iv.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Interview{}, nil, fmt.Errorf("parsing created_at: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT id, interview_id, position, question_text
		FROM questions WHERE interview_id = ? ORDER BY position ASC`, id,
	)
	if err != nil {
		return Interview{}, nil, err
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.InterviewID, &q.Position, &q.Text); err != nil {
			return Interview{}, nil, err
		}
		questions = append(questions, q)
	}
	return iv, questions, rows.Err()
}

// ListInterviews returns interviews ordered newest first.
func (s *Store) ListInterviews(limit, offset int) ([]Interview, error) {
	rows, err := s.db.Query(`
		SELECT id, vacancy_info, created_at
		FROM interviews ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Interview
	for rows.Next() {
		var iv Interview
		var createdAt string
		if err := rows.Scan(&iv.ID, &iv.VacancyInfo, &createdAt); err != nil {
			return nil, err
		}
		if iv.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		results = append(results, iv)
	}
	return results, rows.Err()
}

// --- Responses ---

// AppendResponses records one response row per answer in a single transaction.
// Every question id must belong to the given interview; a foreign question id
// fails the whole batch with ErrForeignQuestion and no rows are written.
// Prior responses are never deduplicated or updated.
func (s *Store) AppendResponses(interviewID string, answers map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow("SELECT COUNT(*) FROM interviews WHERE id = ?", interviewID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	// Stable iteration order keeps insertion deterministic across runs.
	questionIDs := make([]string, 0, len(answers))
	for qid := range answers {
		questionIDs = append(questionIDs, qid)
	}
	sort.Strings(questionIDs)

	now := time.Now().UTC().Format(time.RFC3339)
	for _, qid := range questionIDs {
		var owned int
		if err := tx.QueryRow(
			"SELECT COUNT(*) FROM questions WHERE id = ? AND interview_id = ?", qid, interviewID,
		).Scan(&owned); err != nil {
			return err
		}
		if owned == 0 {
			return fmt.Errorf("%w: %s", ErrForeignQuestion, qid)
		}

		if _, err := tx.Exec(`
			INSERT INTO responses (id, interview_id, question_id, response_text, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), interviewID, qid, answers[qid], now,
		); err != nil {
			return fmt.Errorf("inserting response for question %s: %w", qid, err)
		}
	}

	return tx.Commit()
}

// ResponseForQuestion returns the text of the latest response recorded for a
// question, or ErrNotFound when none exists. Ordering by rowid resolves rows
// sharing a created_at second deterministically (insertion order).
func (s *Store) ResponseForQuestion(questionID string) (string, error) {
	var text string
	err := s.db.QueryRow(`
		SELECT response_text FROM responses
		WHERE question_id = ? ORDER BY rowid DESC LIMIT 1`, questionID,
	).Scan(&text)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return text, err
}

// --- Analyses ---

// AppendAnalysis inserts a new analysis row. Prior rows for the interview are
// kept as history, never updated or deleted.
func (s *Store) AppendAnalysis(interviewID, analysisText string) error {
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM interviews WHERE id = ?", interviewID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	_, err := s.db.Exec(`
		INSERT INTO analyses (id, interview_id, analysis_text, created_at)
		VALUES (?, ?, ?, ?)`,
		uuid.New().String(), interviewID, analysisText, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// LatestAnalysis returns the most recently appended analysis text for an
// interview, or ErrNotFound when none exists.
func (s *Store) LatestAnalysis(interviewID string) (string, error) {
	var text string
	err := s.db.QueryRow(`
		SELECT analysis_text FROM analyses
		WHERE interview_id = ? ORDER BY rowid DESC LIMIT 1`, interviewID,
	).Scan(&text)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return text, err
}
