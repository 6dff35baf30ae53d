package pipeline

import (
	"fmt"
	"strings"

	"stock-pipeline/src/config"
	"stock-pipeline/src/helpers"
	"stock-pipeline/src/interfaces"
	"stock-pipeline/src/logger"
	"stock-pipeline/src/models"
)

// -----------------------------------------------------------------------------

// A run fails outright only when fewer than half of the symbols succeed.
// Isolated API hiccups are tolerated; systemic failure is not.
const minSuccessRatio = 0.5

// -----------------------------------------------------------------------------

// Pipeline sequences environment check, the per-symbol fetch+store loop, the
// success gate and the retention sweep. Symbols are processed strictly
// sequentially to respect the upstream rate limit.
type Pipeline struct {
	Config  *config.Config
	Logger  *logger.Logger
	Fetcher interfaces.IQuoteFetcher
	Store   interfaces.IQuoteStore
}

// -----------------------------------------------------------------------------

func NewPipeline(cfg *config.Config, log *logger.Logger, fetcher interfaces.IQuoteFetcher, store interfaces.IQuoteStore) *Pipeline {
	return &Pipeline{
		Config:  cfg,
		Logger:  log,
		Fetcher: fetcher,
		Store:   store,
	}
}

// -----------------------------------------------------------------------------

// ValidateEnvironment fails fast when any required setting is absent, before
// any network or storage activity.
func (p *Pipeline) ValidateEnvironment() error {
	if missing := p.Config.MissingSettings(); len(missing) > 0 {
		return helpers.NewConfigurationError(
			"missing required environment variables: "+strings.Join(missing, ", "), nil)
	}

	p.Logger.Info("All required environment variables are set")
	return nil
}

// -----------------------------------------------------------------------------

// FetchAndStoreAll processes each symbol in order. One symbol's failure never
// aborts the others; the run as a whole fails only when the success ratio
// drops below the gate.
func (p *Pipeline) FetchAndStoreAll(symbols []string) (*models.MRunReport, error) {
	report := &models.MRunReport{Total: len(symbols)}

	for _, symbol := range symbols {
		p.Logger.Info("Fetching data for: %s", symbol)

		data, err := p.Fetcher.Fetch(symbol)
		if err != nil {
			p.Logger.Warning("No data returned for %s: %v. Skipping.", symbol, err)
			report.Results = append(report.Results, models.MSymbolResult{
				Symbol: symbol, Success: false, Reason: err.Error(),
			})
			continue
		}

		if err := p.Store.UpsertQuote(data); err != nil {
			p.Logger.Error("Error storing %s: %v. Continuing with next symbol.", symbol, err)
			report.Results = append(report.Results, models.MSymbolResult{
				Symbol: symbol, Success: false, Reason: err.Error(),
			})
			continue
		}

		p.Logger.Info("Data for %s stored successfully.", symbol)
		report.Successes++
		report.Results = append(report.Results, models.MSymbolResult{
			Symbol: symbol, Success: true,
		})
	}

	if report.SuccessRatio() < minSuccessRatio {
		return report, &helpers.PipelineError{
			Message: fmt.Sprintf("less than half of the symbols were processed successfully (%d/%d)",
				report.Successes, report.Total),
		}
	}

	p.Logger.Info("Successfully processed %d/%d symbols.", report.Successes, report.Total)
	return report, nil
}

// -----------------------------------------------------------------------------

// Cleanup runs the retention sweep. Failures are logged, never escalated.
func (p *Pipeline) Cleanup(retentionDays int) bool {
	if _, err := p.Store.PruneOlderThan(retentionDays); err != nil {
		p.Logger.Warning("Data cleanup failed, but continuing: %v", err)
		return false
	}

	p.Logger.Info("Data cleanup completed successfully.")
	return true
}

// -----------------------------------------------------------------------------

// Run executes the whole pipeline the way the external scheduler orders its
// tasks: environment check, storage init, per-symbol loop with the success
// gate, then cleanup regardless of the gate's outcome.
func (p *Pipeline) Run() error {
	if err := p.ValidateEnvironment(); err != nil {
		p.Logger.Error("Environment validation failed: %v", err)
		return err
	}

	if err := p.Store.Initialize(); err != nil {
		p.Logger.Error("Storage initialization failed: %v", err)
		return err
	}
	defer p.Store.Close()

	_, gateErr := p.FetchAndStoreAll(p.Config.Pipeline.Symbols)
	if gateErr != nil {
		p.Logger.Error("Critical error in fetch and store: %v", gateErr)
	}

	p.Cleanup(p.Config.Pipeline.DataRetentionDays)

	return gateErr
}

// -----------------------------------------------------------------------------

// RunSingle fetches and stores one symbol, bypassing the success gate and the
// retention sweep. The typed failure is returned as-is so the caller can
// report the exact reason.
func (p *Pipeline) RunSingle(symbol string) error {
	if err := p.ValidateEnvironment(); err != nil {
		p.Logger.Error("Environment validation failed: %v", err)
		return err
	}

	if err := p.Store.Initialize(); err != nil {
		p.Logger.Error("Storage initialization failed: %v", err)
		return err
	}
	defer p.Store.Close()

	data, err := p.Fetcher.Fetch(symbol)
	if err != nil {
		return err
	}
	if err := p.Store.UpsertQuote(data); err != nil {
		return err
	}

	p.Logger.Info("Data for %s stored successfully.", symbol)
	return nil
}
