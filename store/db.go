package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/openclaw/qrstudio/qr"
)

// Generation is one successfully encoded QR image.
type Generation struct {
	ID              string    `json:"id"`
	Text            string    `json:"text"`
	ErrorCorrection qr.Level  `json:"error_correction"`
	Format          qr.Format `json:"type"`
	Quality         float64   `json:"quality"`
	Margin          int       `json:"margin"`
	Width           int       `json:"width"`
	Foreground      string    `json:"foreground"`
	Background      string    `json:"background"`
	Bytes           int       `json:"bytes"`
	Modules         int       `json:"modules"`
	CreatedAt       int64     `json:"created_at"`
}

// Options returns the encoding options that produced g.
func (g *Generation) Options() qr.Options {
	return qr.Options{
		Text:            g.Text,
		ErrorCorrection: g.ErrorCorrection,
		Format:          g.Format,
		Quality:         g.Quality,
		Margin:          g.Margin,
		Width:           g.Width,
		Foreground:      g.Foreground,
		Background:      g.Background,
	}
}

// NewGeneration builds a record for img encoded from opts.
func NewGeneration(opts qr.Options, img *qr.Image) *Generation {
	return &Generation{
		ID:              uuid.NewString(),
		Text:            opts.Text,
		ErrorCorrection: opts.ErrorCorrection,
		Format:          img.Format,
		Quality:         opts.Quality,
		Margin:          opts.Margin,
		Width:           opts.Width,
		Foreground:      opts.Foreground,
		Background:      opts.Background,
		Bytes:           len(img.Data),
		Modules:         img.Modules,
		CreatedAt:       time.Now().UnixMilli(),
	}
}

// ErrNotFound is returned when a generation does not exist.
var ErrNotFound = errors.New("generation not found")

// HistoryStore manages SQLite storage for generated QR codes.
type HistoryStore struct {
	db *sql.DB
}

const createGenerationsTable = `
CREATE TABLE IF NOT EXISTS generations (
    id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    error_correction TEXT NOT NULL,
    format TEXT NOT NULL,
    quality REAL NOT NULL DEFAULT 0,
    margin INTEGER NOT NULL DEFAULT 0,
    width INTEGER NOT NULL,
    foreground TEXT NOT NULL,
    background TEXT NOT NULL,
    bytes INTEGER NOT NULL DEFAULT 0,
    modules INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);
`

const createFTSTable = `
CREATE VIRTUAL TABLE IF NOT EXISTS generations_fts USING fts5(
    text,
    content='generations',
    content_rowid='rowid'
);
`

const createFTSTrigger = `
CREATE TRIGGER IF NOT EXISTS generations_ai AFTER INSERT ON generations BEGIN
    INSERT INTO generations_fts(rowid, text) VALUES (new.rowid, new.text);
END;
`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at);
`

const generationColumns = `id, text, error_correction, format, quality, margin, width,
       foreground, background, bytes, modules, created_at`

// NewHistoryStore opens (or creates) the SQLite database at dbPath and
// initialises the schema.
func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, stmt := range []string{
		createGenerationsTable,
		createFTSTable,
		createFTSTrigger,
		createIndexes,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec schema statement: %w", err)
		}
	}

	return &HistoryStore{db: db}, nil
}

// SaveGeneration inserts g. Duplicate ids are ignored.
func (s *HistoryStore) SaveGeneration(g *Generation) error {
	const query = `
		INSERT OR IGNORE INTO generations
			(id, text, error_correction, format, quality, margin, width, foreground, background, bytes, modules, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		g.ID,
		g.Text,
		string(g.ErrorCorrection),
		string(g.Format),
		g.Quality,
		g.Margin,
		g.Width,
		g.Foreground,
		g.Background,
		g.Bytes,
		g.Modules,
		g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save generation: %w", err)
	}
	return nil
}

// GetGeneration returns the generation with the given id.
func (s *HistoryStore) GetGeneration(id string) (*Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations WHERE id = ?`

	rows, err := s.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("get generation: %w", err)
	}
	defer rows.Close()

	gens, err := scanGenerations(rows)
	if err != nil {
		return nil, err
	}
	if len(gens) == 0 {
		return nil, ErrNotFound
	}
	return &gens[0], nil
}

// RecentGenerations returns generations newest first.
func (s *HistoryStore) RecentGenerations(limit, offset int) ([]Generation, error) {
	query := `SELECT ` + generationColumns + `
		FROM generations
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`

	rows, err := s.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("recent generations: %w", err)
	}
	defer rows.Close()

	return scanGenerations(rows)
}

// SearchGenerations performs a full-text search over the encoded text, ranked
// by relevance.
func (s *HistoryStore) SearchGenerations(query string, limit int) ([]Generation, error) {
	escaped := strings.ReplaceAll(query, `"`, `""`)
	ftsQuery := fmt.Sprintf(`"%s"`, escaped)

	const q = `
		SELECT g.id, g.text, g.error_correction, g.format, g.quality, g.margin, g.width,
		       g.foreground, g.background, g.bytes, g.modules, g.created_at
		FROM generations g
		JOIN generations_fts fts ON g.rowid = fts.rowid
		WHERE generations_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`

	rows, err := s.db.Query(q, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("search generations: %w", err)
	}
	defer rows.Close()

	return scanGenerations(rows)
}

// Close closes the underlying database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

func scanGenerations(rows *sql.Rows) ([]Generation, error) {
	var gens []Generation
	for rows.Next() {
		var g Generation
		var level, format string
		if err := rows.Scan(
			&g.ID, &g.Text, &level, &format, &g.Quality, &g.Margin, &g.Width,
			&g.Foreground, &g.Background, &g.Bytes, &g.Modules, &g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan generation row: %w", err)
		}
		g.ErrorCorrection = qr.Level(level)
		g.Format = qr.Format(format)
		gens = append(gens, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generation rows: %w", err)
	}
	return gens, nil
}
