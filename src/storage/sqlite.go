package storage

import (
	"database/sql"
	"fmt"
	"time"

	"stock-pipeline/src/config"
	"stock-pipeline/src/helpers"
	"stock-pipeline/src/logger"
	"stock-pipeline/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// SQLiteDB implements the same store contract on a local file, selected by
// storage.db_type. Decimal columns are kept as TEXT so values survive
// round-trips without floating-point drift. Every operation secures its own
// connection, so each entry point can run without a prior Initialize.
type SQLiteDB struct {
	Config *config.Config
	DB     *sql.DB
	Logger *logger.Logger

	Sleep helpers.SleepFunc
	Now   func() time.Time
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *config.Config, log *logger.Logger) *SQLiteDB {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
		Sleep:  time.Sleep,
		Now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Connect() error {
	if d.DB != nil {
		return nil
	}

	db, err := sql.Open("sqlite", d.Config.Storage.DBPath)
	if err != nil {
		return helpers.NewDatabaseError("failed to open database", err)
	}

	err = helpers.RetryFixed("database connection", connectAttempts, connectRetryDelay, d.Sleep, func() error {
		return db.Ping()
	})
	if err != nil {
		db.Close()
		return helpers.NewDatabaseError("failed to connect to database", err)
	}

	d.DB = db
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	if err := d.Connect(); err != nil {
		return err
	}

	if _, err := d.DB.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := d.DB.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	if err := d.ensureSchema(); err != nil {
		return err
	}

	d.Logger.Info("SQLiteDB initialized successfully (%s)", d.Config.Storage.DBPath)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) ensureSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS stock_quotes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			open_price TEXT,
			high_price TEXT,
			low_price TEXT,
			price TEXT,
			volume INTEGER,
			latest_trading_day TEXT,
			previous_close TEXT,
			change_amount TEXT,
			change_percent TEXT,
			data_timestamp TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(symbol, latest_trading_day)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("failed to create stock_quotes", err)
	}

	query = `
		CREATE INDEX IF NOT EXISTS idx_stock_quotes_symbol_date
		ON stock_quotes(symbol, latest_trading_day);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("failed to create stock_quotes index", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) UpsertQuote(data *models.MQuoteResponse) error {
	if err := checkUpsertInput(data); err != nil {
		d.Logger.Warning("%v", err)
		return err
	}
	quote := data.GlobalQuote

	if err := d.Connect(); err != nil {
		return err
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO stock_quotes (
			symbol, open_price, high_price, low_price, price, volume,
			latest_trading_day, previous_close, change_amount, change_percent,
			data_timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, latest_trading_day)
		DO UPDATE SET
			open_price = excluded.open_price,
			high_price = excluded.high_price,
			low_price = excluded.low_price,
			price = excluded.price,
			volume = excluded.volume,
			previous_close = excluded.previous_close,
			change_amount = excluded.change_amount,
			change_percent = excluded.change_percent,
			data_timestamp = excluded.data_timestamp
	`
	now := d.Now().UTC()
	args := quoteArgs(quote, now)
	// Bind the timestamp as text so comparisons in SQLite stay lexicographic.
	args[len(args)-1] = now.Format(time.RFC3339Nano)

	if _, err := tx.Exec(query, args...); err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("failed to store data for %s", quote.Symbol), err)
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("failed to commit data for %s", quote.Symbol), err)
	}

	d.Logger.Info("Successfully stored/updated data for %s on %s", quote.Symbol, quote.LatestTradingDay)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) PruneOlderThan(retentionDays int) (int64, error) {
	if err := d.Connect(); err != nil {
		return 0, err
	}

	cutoff := retentionCutoff(d.Now(), retentionDays)

	res, err := d.DB.Exec(`DELETE FROM stock_quotes WHERE latest_trading_day < ?`, cutoff)
	if err != nil {
		return 0, helpers.NewDatabaseError("failed to clean up old records", err)
	}

	deleted, _ := res.RowsAffected()
	d.Logger.Info("Cleaned up %d old records older than %s", deleted, cutoff)
	return deleted, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Stats() (*models.MPipelineStats, error) {
	if err := d.Connect(); err != nil {
		return nil, err
	}

	stats := &models.MPipelineStats{}

	err := d.DB.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM sqlite_master
			WHERE type = 'table' AND name = 'stock_quotes'
		);
	`).Scan(&stats.TableExists)
	if err != nil {
		return nil, helpers.NewDatabaseError("failed to check stock_quotes table", err)
	}

	if !stats.TableExists {
		return stats, nil
	}

	var latest sql.NullString
	err = d.DB.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT symbol), MAX(latest_trading_day)
		FROM stock_quotes;
	`).Scan(&stats.TotalRecords, &stats.UniqueSymbols, &latest)
	if err != nil {
		return nil, helpers.NewDatabaseError("failed to get pipeline stats", err)
	}
	if latest.Valid {
		stats.LatestTradingDay = latest.String
	}

	return stats, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Ping() error {
	if err := d.Connect(); err != nil {
		return err
	}
	return d.DB.Ping()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Version() (string, error) {
	if err := d.Connect(); err != nil {
		return "", err
	}

	var version string
	if err := d.DB.QueryRow(`SELECT 'SQLite ' || sqlite_version();`).Scan(&version); err != nil {
		return "", helpers.NewDatabaseError("failed to query server version", err)
	}
	return version, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB == nil {
		return nil
	}
	err := d.DB.Close()
	d.DB = nil
	return err
}
