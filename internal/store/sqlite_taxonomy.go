package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// FindOrCreateTerm resolves a taxonomy term by name, creating it when absent.
// Matching follows the store's collation: an existing term with the same
// name wins over creating a new one.
func (s *SQLiteStore) FindOrCreateTerm(ctx context.Context, taxonomy, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM terms WHERE taxonomy = ? AND name = ?", taxonomy, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO terms (taxonomy, name) VALUES (?, ?)", taxonomy, name)
	if err != nil {
		return 0, fmt.Errorf("create term %q: %w", name, err)
	}
	return res.LastInsertId()
}

// ReplaceRecordTerms replaces the record's term set for one taxonomy with
// exactly the given IDs. Links under other taxonomies are untouched.
func (s *SQLiteStore) ReplaceRecordTerms(ctx context.Context, recordID int64, taxonomy string, termIDs []int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM record_terms
		WHERE record_id = ?
		  AND term_id IN (SELECT id FROM terms WHERE taxonomy = ?)
	`, recordID, taxonomy)
	if err != nil {
		return err
	}

	if len(termIDs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO record_terms (record_id, term_id) VALUES ")
	args := make([]interface{}, 0, len(termIDs)*2)
	for i, termID := range termIDs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?)")
		args = append(args, recordID, termID)
	}
	sb.WriteString(" ON CONFLICT DO NOTHING")

	_, err = s.db.ExecContext(ctx, sb.String(), args...)
	return err
}

// RecordTermNames returns the names of the record's terms in one taxonomy.
func (s *SQLiteStore) RecordTermNames(ctx context.Context, recordID int64, taxonomy string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name
		FROM terms t
		INNER JOIN record_terms rt ON rt.term_id = t.id
		WHERE rt.record_id = ? AND t.taxonomy = ?
		ORDER BY t.name ASC
	`, recordID, taxonomy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
