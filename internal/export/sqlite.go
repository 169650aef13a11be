package export

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/seenimoa/oilprice/pkg/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS prices (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	commodity TEXT NOT NULL,
	date      TEXT NOT NULL,
	value     REAL NOT NULL,
	unit      TEXT NOT NULL,
	type      TEXT NOT NULL,
	UNIQUE(commodity, date, type)
);
CREATE INDEX IF NOT EXISTS idx_prices_commodity_date ON prices(commodity, date);
`

// SQLiteSaver upserts prices into a "prices" table. Unlike the file formats,
// saving into an existing database merges rows instead of replacing the file,
// so repeated collection runs accumulate a series.
type SQLiteSaver struct{}

// Extension implements Saver.
func (SQLiteSaver) Extension() string { return "db" }

// Save implements Saver.
func (SQLiteSaver) Save(prices []models.HistoricalPrice, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO prices (commodity, date, value, unit, type) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, p := range prices {
		if _, err := stmt.Exec(p.Commodity, p.Date.UTC().Format(time.RFC3339), p.Value, p.Unit, p.Type); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s %s: %w", p.Commodity, p.Date.Format(time.RFC3339), err)
		}
	}
	return tx.Commit()
}

// ReadSQLite returns the stored series of commodity ordered by date.
func ReadSQLite(path, commodity string) ([]models.HistoricalPrice, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT date, commodity, value, unit, type FROM prices WHERE commodity = ? ORDER BY date`, commodity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HistoricalPrice
	for rows.Next() {
		var (
			p    models.HistoricalPrice
			date string
		)
		if err := rows.Scan(&date, &p.Commodity, &p.Value, &p.Unit, &p.Type); err != nil {
			return nil, err
		}
		if p.Date, err = time.Parse(time.RFC3339, date); err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
