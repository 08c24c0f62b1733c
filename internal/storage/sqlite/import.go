package sqlite

import (
	"context"
	"strings"
)

// ImportSQL executes a dump produced by the exporter inside a single
// transaction, so a malformed dump leaves the database untouched.
func (s *Store) ImportSQL(ctx context.Context, dump string) error {
	if err := s.ready(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.wrap("import", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(dump) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return s.wrap("import", err)
		}
	}
	return s.wrap("import", tx.Commit())
}

// splitStatements splits a dump on semicolons that sit outside single-quoted
// string literals. Line comments are dropped; quote doubling ('') inside a
// literal does not terminate it.
func splitStatements(dump string) []string {
	var (
		out      []string
		b        strings.Builder
		inQuote  bool
		inLineCm bool
	)
	for i := 0; i < len(dump); i++ {
		c := dump[i]
		if inLineCm {
			if c == '\n' {
				inLineCm = false
			}
			continue
		}
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case !inQuote && c == '-' && i+1 < len(dump) && dump[i+1] == '-':
			inLineCm = true
			i++
		case !inQuote && c == ';':
			if stmt := strings.TrimSpace(b.String()); stmt != "" {
				out = append(out, stmt)
			}
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	if stmt := strings.TrimSpace(b.String()); stmt != "" {
		out = append(out, stmt)
	}
	return out
}
