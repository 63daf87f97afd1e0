package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the outcome of an extraction attempt.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Entry is one recorded extraction attempt.
type Entry struct {
	ID           int64     `json:"id"`
	RequestID    string    `json:"request_id"`
	CreatedAt    time.Time `json:"created_at"`
	Status       Status    `json:"status"`
	Start        string    `json:"start"`
	Duration     float64   `json:"duration_seconds"`
	InputFile    string    `json:"input_file,omitempty"`
	OutputFile   string    `json:"output_file,omitempty"`
	Channels     []string  `json:"channels,omitempty"`
	Samples      int       `json:"samples"`
	Encoding     string    `json:"encoding,omitempty"`
	Digest       string    `json:"digest,omitempty"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

const entryColumns = "id, request_id, created_at, status, start_time, duration_seconds, input_file, output_file, channels_json, sample_count, encoding, digest, error_kind, error_message"

// Record inserts an entry and returns its id. CreatedAt defaults to now.
func (s *Store) Record(ctx context.Context, entry Entry) (int64, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	channels, err := json.Marshal(entry.Channels)
	if err != nil {
		return 0, fmt.Errorf("marshal channels: %w", err)
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO extractions (
            request_id, created_at, status, start_time, duration_seconds,
            input_file, output_file, channels_json, sample_count, encoding,
            digest, error_kind, error_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RequestID,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(entry.Status),
		entry.Start,
		entry.Duration,
		nullableString(entry.InputFile),
		nullableString(entry.OutputFile),
		string(channels),
		entry.Samples,
		nullableString(entry.Encoding),
		nullableString(entry.Digest),
		nullableString(entry.ErrorKind),
		nullableString(entry.ErrorMessage),
	)
	if err != nil {
		return 0, fmt.Errorf("insert extraction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// List returns the most recent entries first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + entryColumns + " FROM extractions ORDER BY id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry      Entry
		createdRaw string
		status     string
		inputFile  sql.NullString
		outputFile sql.NullString
		channels   sql.NullString
		encoding   sql.NullString
		digest     sql.NullString
		errorKind  sql.NullString
		errorMsg   sql.NullString
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.RequestID,
		&createdRaw,
		&status,
		&entry.Start,
		&entry.Duration,
		&inputFile,
		&outputFile,
		&channels,
		&entry.Samples,
		&encoding,
		&digest,
		&errorKind,
		&errorMsg,
	); err != nil {
		return Entry{}, fmt.Errorf("scan extraction: %w", err)
	}
	created, err := time.Parse(time.RFC3339Nano, createdRaw)
	if err != nil {
		return Entry{}, fmt.Errorf("parse created_at %q: %w", createdRaw, err)
	}
	entry.CreatedAt = created
	entry.Status = Status(status)
	entry.InputFile = inputFile.String
	entry.OutputFile = outputFile.String
	entry.Encoding = encoding.String
	entry.Digest = digest.String
	entry.ErrorKind = errorKind.String
	entry.ErrorMessage = errorMsg.String
	if channels.Valid && channels.String != "" {
		if err := json.Unmarshal([]byte(channels.String), &entry.Channels); err != nil {
			return Entry{}, fmt.Errorf("decode channels: %w", err)
		}
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
