package export

import (
	"context"
	"database/sql"

	"github.com/FocuswithJustin/JuniperQuran/core/errors"
	"github.com/FocuswithJustin/JuniperQuran/core/quran"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS suras (
		number    INTEGER PRIMARY KEY,
		name      TEXT NOT NULL,
		bismillah TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS ayat (
		sura       INTEGER NOT NULL REFERENCES suras(number),
		aya        INTEGER NOT NULL,
		text       TEXT NOT NULL,
		normalized TEXT NOT NULL,
		PRIMARY KEY (sura, aya)
	)`,
	`CREATE TABLE IF NOT EXISTS info (name TEXT PRIMARY KEY, value TEXT)`,
}

// WriteSQLite creates the suras, ayat and info tables in db and fills them
// from c inside a single transaction. The normalized column holds the
// harakat-free text used by search, so LIKE queries behave like Search.
func WriteSQLite(ctx context.Context, db *sql.DB, c *quran.Corpus) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "export sqlite")
	}
	if err := writeTables(ctx, tx, c); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "export sqlite")
	}
	return errors.Wrap(tx.Commit(), "export sqlite")
}

func writeTables(ctx context.Context, tx *sql.Tx, c *quran.Corpus) error {
	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	suraStmt, err := tx.PrepareContext(ctx, `INSERT INTO suras (number, name, bismillah) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer suraStmt.Close()

	ayaStmt, err := tx.PrepareContext(ctx, `INSERT INTO ayat (sura, aya, text, normalized) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ayaStmt.Close()

	for i, ch := range c.Chapters {
		var bismillah sql.NullString
		if ch.HasBismillah() {
			bismillah = sql.NullString{String: ch.Bismillah, Valid: true}
		}
		if _, err := suraStmt.ExecContext(ctx, i+1, ch.Name, bismillah); err != nil {
			return err
		}
		for j, text := range ch.Verses {
			if _, err := ayaStmt.ExecContext(ctx, i+1, j+1, text, quran.Normalize(text)); err != nil {
				return err
			}
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO info (name, value) VALUES ('fingerprint', ?)`, c.Fingerprint)
	return err
}
