package pipeline

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"stock-pipeline/src/models"

	"github.com/scmhub/calendar"
)

// -----------------------------------------------------------------------------

// HealthCheck builds the read-only diagnostic report: environment
// completeness, storage and upstream reachability, stored-data statistics and
// a market-status line. It never mutates state and never consumes upstream
// quota beyond the lightweight probe.
//
// Overall health weighs the environment, database and api sections only; the
// stats and market sections are informational.
func (p *Pipeline) HealthCheck() *models.MHealthReport {
	report := &models.MHealthReport{Timestamp: time.Now().UTC()}

	report.Environment = p.checkEnvironment()
	report.Database = p.checkDatabase(&report.Stats)
	report.API = p.checkAPI()
	report.Market = marketStatus(time.Now())

	return report
}

// -----------------------------------------------------------------------------

func (p *Pipeline) checkEnvironment() models.MComponentStatus {
	if missing := p.Config.MissingSettings(); len(missing) > 0 {
		return models.MComponentStatus{
			Status:  "error",
			Message: "Missing environment variables: " + strings.Join(missing, ", "),
		}
	}
	return models.MComponentStatus{Status: "ok", Message: "All required environment variables are set"}
}

// -----------------------------------------------------------------------------

func (p *Pipeline) checkDatabase(stats *models.MPipelineStats) models.MComponentStatus {
	if err := p.Store.Connect(); err != nil {
		return models.MComponentStatus{
			Status:  "error",
			Message: fmt.Sprintf("Database connection failed: %v", err),
		}
	}

	s, err := p.Store.Stats()
	if err != nil {
		return models.MComponentStatus{
			Status:  "error",
			Message: fmt.Sprintf("Failed to get pipeline stats: %v", err),
		}
	}
	*stats = *s

	version, err := p.Store.Version()
	if err != nil {
		p.Logger.Warning("Could not read storage version: %v", err)
		version = "unknown"
	}

	return models.MComponentStatus{
		Status:  "ok",
		Message: "Connected to " + version,
	}
}

// -----------------------------------------------------------------------------

func (p *Pipeline) checkAPI() models.MComponentStatus {
	status, err := p.Fetcher.Probe()
	if err != nil {
		return models.MComponentStatus{
			Status:  "error",
			Message: fmt.Sprintf("API connectivity test failed: %v", err),
		}
	}
	if status != http.StatusOK {
		return models.MComponentStatus{
			Status:  "warning",
			Message: fmt.Sprintf("API returned status code: %d", status),
		}
	}
	return models.MComponentStatus{Status: "ok", Message: "Upstream API is accessible"}
}

// -----------------------------------------------------------------------------

// marketStatus reports whether NYSE is currently trading. The configured
// symbols are all US listings, so a single calendar suffices.
func marketStatus(now time.Time) models.MComponentStatus {
	cal := calendar.GetCalendar("xnys")
	if cal == nil {
		return models.MComponentStatus{Status: "info", Message: "Trading calendar unavailable"}
	}

	local := now.In(cal.Loc)
	if !cal.IsBusinessDay(local) {
		return models.MComponentStatus{Status: "info", Message: "NYSE is closed today"}
	}
	if cal.IsOpen(local) {
		return models.MComponentStatus{Status: "info", Message: "NYSE is open"}
	}
	return models.MComponentStatus{Status: "info", Message: "NYSE is closed (outside trading hours)"}
}
