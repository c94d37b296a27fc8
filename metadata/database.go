package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/jaym/mergesubs/subtitles"
)

type preparedStatementKey string

const (
	insertMergeStmt preparedStatementKey = "insertMergeStmt"
	insertCueStmt   preparedStatementKey = "insertCueStmt"
	searchStmt      preparedStatementKey = "searchStmt"
	listMergesStmt  preparedStatementKey = "listMergesStmt"
	listCuesStmt    preparedStatementKey = "listCuesStmt"
	mergeExistsStmt preparedStatementKey = "mergeExistsStmt"
)

const (
	DefaultListLimit  = 100
	maxSearchTermSize = 256
)

// Catalog is a SQLite index of merge runs and the cues they produced.
type Catalog struct {
	db                 *sql.DB
	preparedStatements map[preparedStatementKey]*sql.Stmt
}

// OpenCatalog opens or creates the catalog at dbPath.
func OpenCatalog(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	schemaBytes, err := SchemaFS.ReadFile("schema.sql")
	if err != nil {
		db.Close() // nolint: errcheck
		log.Error().Err(err).Msg("Failed to read schema.sql")
		return nil, err
	}

	_, err = db.Exec(string(schemaBytes))
	if err != nil {
		db.Close() // nolint: errcheck
		log.Error().Err(err).Str("path", dbPath).Msg("Failed to execute schema.sql")
		return nil, err
	}

	preparedStatements := make(map[preparedStatementKey]*sql.Stmt)
	for key, query := range map[preparedStatementKey]string{
		insertMergeStmt: `INSERT INTO merges (media_path, output_path, primary_stream, fallback_stream, primary_count, fallback_count, fallback_kept, merged_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		insertCueStmt:   `INSERT INTO cues (merge_id, seq, start_ts, end_ts, text) VALUES (?, ?, ?, ?, ?)`,
		searchStmt:      `SELECT merges.id, merges.media_path, cues.seq, cues.start_ts, cues.end_ts, cues.text FROM cues INNER JOIN merges ON cues.merge_id = merges.id WHERE cues.text LIKE '%' || ? || '%' ESCAPE '\' ORDER BY merges.id DESC, cues.seq ASC LIMIT ?`,
		listMergesStmt:  `SELECT id, media_path, output_path, primary_stream, fallback_stream, primary_count, fallback_count, fallback_kept, merged_count, created_at FROM merges ORDER BY id DESC LIMIT ?`,
		listCuesStmt:    `SELECT seq, start_ts, end_ts, text FROM cues WHERE merge_id = ? ORDER BY seq ASC`,
		mergeExistsStmt: `SELECT COUNT(1) FROM merges WHERE id = ?`,
	} {
		stmt, err := db.Prepare(query)
		if err != nil {
			db.Close() // nolint: errcheck
			log.Error().Err(err).Msg("Failed to prepare statement")
			return nil, err
		}

		preparedStatements[key] = stmt
	}

	return &Catalog{
		db:                 db,
		preparedStatements: preparedStatements,
	}, nil
}

// RecordMerge stores a merge run and its cues in a single transaction and
// returns the new run id.
func (c *Catalog) RecordMerge(ctx context.Context, rec MergeRecord, cues []subtitles.Cue) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() // nolint: errcheck

	res, err := tx.StmtContext(ctx, c.preparedStatements[insertMergeStmt]).ExecContext(ctx,
		rec.MediaPath, rec.OutputPath,
		rec.PrimaryStream, rec.FallbackStream,
		rec.PrimaryCount, rec.FallbackCount, rec.FallbackKept, rec.MergedCount,
		rec.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting merge: %w", err)
	}

	mergeID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	insertCue := tx.StmtContext(ctx, c.preparedStatements[insertCueStmt])
	for i, cue := range cues {
		_, err = insertCue.ExecContext(ctx, mergeID, i+1,
			cue.Start.Milliseconds(), cue.End.Milliseconds(), strings.TrimSpace(cue.Text))
		if err != nil {
			return 0, fmt.Errorf("inserting cue %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return mergeID, nil
}

// Search returns stored cues whose text contains query, newest runs first.
func (c *Catalog) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	query = truncateTerm(query, maxSearchTermSize)
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := c.preparedStatements[searchStmt].QueryContext(ctx, escapeLike(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var result SearchResult
		err := rows.Scan(&result.MergeID, &result.MediaPath, &result.Seq, &result.Start, &result.End, &result.Text)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func (c *Catalog) ListMerges(ctx context.Context, limit int) ([]MergeRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := c.preparedStatements[listMergesStmt].QueryContext(ctx, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MergeRecord
	for rows.Next() {
		var rec MergeRecord
		var createdAt int64
		err := rows.Scan(&rec.ID, &rec.MediaPath, &rec.OutputPath,
			&rec.PrimaryStream, &rec.FallbackStream,
			&rec.PrimaryCount, &rec.FallbackCount, &rec.FallbackKept, &rec.MergedCount,
			&createdAt)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = time.Unix(createdAt, 0)
		results = append(results, rec)
	}
	return results, rows.Err()
}

// ListCues returns the cues of a merge run in output order. It returns
// sql.ErrNoRows when the run does not exist.
func (c *Catalog) ListCues(ctx context.Context, mergeID int64) ([]CueRecord, error) {
	var count int
	err := c.preparedStatements[mergeExistsStmt].QueryRowContext(ctx, mergeID).Scan(&count)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, sql.ErrNoRows
	}

	rows, err := c.preparedStatements[listCuesStmt].QueryContext(ctx, mergeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []CueRecord{}
	for rows.Next() {
		var rec CueRecord
		if err := rows.Scan(&rec.Seq, &rec.Start, &rec.End, &rec.Text); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

func (c *Catalog) Close() error {
	for _, stmt := range c.preparedStatements {
		stmt.Close() // nolint: errcheck
	}
	return c.db.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// truncateTerm cuts s to at most n bytes without splitting a character.
func truncateTerm(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
