package storage

import (
	"database/sql"
	"fmt"
	"time"

	"stock-pipeline/src/config"
	"stock-pipeline/src/helpers"
	"stock-pipeline/src/logger"
	"stock-pipeline/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

// PostgresDB implements the store contract on Postgres. Every operation
// secures its own connection, so each entry point can run without a prior
// Initialize.
type PostgresDB struct {
	Config *config.Config
	DB     *sql.DB
	Logger *logger.Logger

	// Sleep and Now are replaceable for deterministic tests.
	Sleep helpers.SleepFunc
	Now   func() time.Time
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *config.Config, log *logger.Logger) *PostgresDB {
	return &PostgresDB{
		Config: cfg,
		Logger: log,
		Sleep:  time.Sleep,
		Now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

// Connect opens the connection with bounded retry. It performs no writes, so
// the read-only diagnostic probe can use it directly.
func (d *PostgresDB) Connect() error {
	if d.DB != nil {
		return nil
	}

	db, err := sql.Open("postgres", d.Config.ConnString())
	if err != nil {
		return helpers.NewDatabaseError("failed to open database", err)
	}

	err = helpers.RetryFixed("database connection", connectAttempts, connectRetryDelay, d.Sleep, func() error {
		if pingErr := db.Ping(); pingErr != nil {
			d.Logger.Warning("Database connection attempt failed: %v", pingErr)
			return pingErr
		}
		return nil
	})
	if err != nil {
		db.Close()
		return helpers.NewDatabaseError("failed to connect to database", err)
	}

	d.DB = db
	return nil
}

// -----------------------------------------------------------------------------

// Initialize connects and ensures the schema exists. It is idempotent under
// re-invocation.
func (d *PostgresDB) Initialize() error {
	if err := d.Connect(); err != nil {
		return err
	}

	if err := d.ensureSchema(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) ensureSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS stock_quotes (
			id SERIAL PRIMARY KEY,
			symbol VARCHAR(10) NOT NULL,
			open_price NUMERIC(10, 4),
			high_price NUMERIC(10, 4),
			low_price NUMERIC(10, 4),
			price NUMERIC(10, 4),
			volume BIGINT,
			latest_trading_day DATE,
			previous_close NUMERIC(10, 4),
			change_amount NUMERIC(10, 4),
			change_percent VARCHAR(20),
			data_timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
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

// UpsertQuote performs a single atomic insert-or-update keyed on
// (symbol, latest_trading_day). On conflict every value column is
// overwritten and data_timestamp refreshed; created_at is never touched.
func (d *PostgresDB) UpsertQuote(data *models.MQuoteResponse) error {
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
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (symbol, latest_trading_day)
		DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			price = EXCLUDED.price,
			volume = EXCLUDED.volume,
			previous_close = EXCLUDED.previous_close,
			change_amount = EXCLUDED.change_amount,
			change_percent = EXCLUDED.change_percent,
			data_timestamp = EXCLUDED.data_timestamp
	`
	if _, err := tx.Exec(query, quoteArgs(quote, d.Now().UTC())...); err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("failed to store data for %s", quote.Symbol), err)
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("failed to commit data for %s", quote.Symbol), err)
	}

	d.Logger.Info("Successfully stored/updated data for %s on %s", quote.Symbol, quote.LatestTradingDay)
	return nil
}

// -----------------------------------------------------------------------------

// PruneOlderThan deletes rows whose trading day precedes now minus the
// retention window. The cutoff is computed once at call time.
func (d *PostgresDB) PruneOlderThan(retentionDays int) (int64, error) {
	if err := d.Connect(); err != nil {
		return 0, err
	}

	cutoff := retentionCutoff(d.Now(), retentionDays)

	res, err := d.DB.Exec(`DELETE FROM stock_quotes WHERE latest_trading_day < $1`, cutoff)
	if err != nil {
		return 0, helpers.NewDatabaseError("failed to clean up old records", err)
	}

	deleted, _ := res.RowsAffected()
	d.Logger.Info("Cleaned up %d old records older than %s", deleted, cutoff)
	return deleted, nil
}

// -----------------------------------------------------------------------------

// Stats returns read-only summary statistics for the diagnostic report.
func (d *PostgresDB) Stats() (*models.MPipelineStats, error) {
	if err := d.Connect(); err != nil {
		return nil, err
	}

	stats := &models.MPipelineStats{}

	err := d.DB.QueryRow(`
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'stock_quotes'
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
		SELECT COUNT(*), COUNT(DISTINCT symbol), MAX(latest_trading_day)::text
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

func (d *PostgresDB) Ping() error {
	if err := d.Connect(); err != nil {
		return err
	}
	return d.DB.Ping()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Version() (string, error) {
	if err := d.Connect(); err != nil {
		return "", err
	}

	var version string
	if err := d.DB.QueryRow(`SELECT version();`).Scan(&version); err != nil {
		return "", helpers.NewDatabaseError("failed to query server version", err)
	}
	return version, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB == nil {
		return nil
	}
	err := d.DB.Close()
	d.DB = nil
	return err
}
