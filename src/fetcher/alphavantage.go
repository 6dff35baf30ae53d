package fetcher

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"stock-pipeline/src/helpers"
	"stock-pipeline/src/logger"
	"stock-pipeline/src/models"
	"stock-pipeline/src/validator"
)

// -----------------------------------------------------------------------------

// AlphaVantageSource retrieves single-symbol GLOBAL_QUOTE snapshots. Calls are
// strictly sequential; the upstream free tier rate-limits aggressively and
// signals it with a "Note" field rather than an HTTP status.
// The reachability probe gets a shorter timeout than quote requests so a hung
// upstream cannot stall the diagnostic report.
const probeTimeout = 10 * time.Second

type AlphaVantageSource struct {
	Config    *models.MConfig
	Logger    *logger.Logger
	Client    *http.Client
	Validator *validator.Validator

	// ProbeClient serves only the reachability probe.
	ProbeClient *http.Client

	// Sleep is replaceable so retry tests run without real delays.
	Sleep helpers.SleepFunc
}

// -----------------------------------------------------------------------------

func NewAlphaVantageSource(cfg *models.MConfig, log *logger.Logger) *AlphaVantageSource {
	return &AlphaVantageSource{
		Config: cfg,
		Logger: log,
		Client: &http.Client{
			Timeout: time.Duration(cfg.Network.RequestTimeout) * time.Second,
		},
		Validator:   validator.NewValidator(log.Named("Validator")),
		ProbeClient: &http.Client{Timeout: probeTimeout},
		Sleep:       time.Sleep,
	}
}

// -----------------------------------------------------------------------------

func (s *AlphaVantageSource) Name() string {
	return "AlphaVantage"
}

// -----------------------------------------------------------------------------

// Fetch retrieves and validates the quote for one symbol.
//
// Transient faults (transport errors, undecodable bodies, HTTP 429 and the
// rate-limit note) are retried up to the configured attempt budget; the
// rate-limit cases back off at twice the ordinary delay. Permanent faults
// (explicit API error message, any other HTTP error status) and validation
// rejections abort immediately. The returned error carries the helpers
// taxonomy class of the final failure.
func (s *AlphaVantageSource) Fetch(symbol string) (*models.MQuoteResponse, error) {
	maxRetries := s.Config.Network.MaxRetries
	retryDelay := time.Duration(s.Config.Network.RetryDelaySeconds) * time.Second

	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		s.Logger.Info("Fetching data for %s (attempt %d/%d)", symbol, attempt, maxRetries)

		body, status, err := s.get(symbol)
		if err != nil {
			// Timeouts and connection failures are transient.
			lastErr = helpers.NewNetworkError(fmt.Sprintf("request failed for %s", symbol), err)
			s.Logger.Warning("Request error for %s (attempt %d): %v", symbol, attempt, err)
			s.waitBeforeRetry(attempt, maxRetries, retryDelay)
			continue
		}

		if status == http.StatusTooManyRequests {
			lastErr = helpers.NewNetworkError(fmt.Sprintf("rate limited (HTTP 429) for %s", symbol), nil)
			s.Logger.Warning("Rate limited (HTTP 429) for %s", symbol)
			s.waitBeforeRetry(attempt, maxRetries, 2*retryDelay)
			continue
		}

		if status != http.StatusOK {
			// Non-retryable HTTP status: abort retries for this symbol.
			s.Logger.Error("HTTP error %d fetching data for %s", status, symbol)
			return nil, helpers.NewDataSourceError(fmt.Sprintf("HTTP error %d for %s", status, symbol), nil)
		}

		var payload models.MQuoteResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			lastErr = helpers.NewDataSourceError(fmt.Sprintf("invalid JSON response for %s", symbol), err)
			s.Logger.Error("Invalid JSON response for %s (attempt %d)", symbol, attempt)
			s.waitBeforeRetry(attempt, maxRetries, retryDelay)
			continue
		}

		if payload.ErrorMessage != "" {
			s.Logger.Error("API error for %s: %s", symbol, payload.ErrorMessage)
			return nil, helpers.NewDataSourceError(fmt.Sprintf("API error for %s: %s", symbol, payload.ErrorMessage), nil)
		}

		if payload.Note != "" {
			s.Logger.Warning("API note for %s: %s", symbol, payload.Note)
			lastErr = helpers.NewNetworkError(fmt.Sprintf("rate limit note for %s", symbol), nil)
			if attempt < maxRetries {
				s.Logger.Info("Rate limit hit, waiting %v...", 2*retryDelay)
				s.Sleep(2 * retryDelay)
			}
			continue
		}

		if !s.Validator.Validate(&payload) {
			// Data-quality rejection, not an upstream fault: no retry.
			s.Logger.Warning("Data validation failed for %s", symbol)
			return nil, helpers.NewValidationError(fmt.Sprintf("data validation failed for %s", symbol), nil)
		}

		s.Logger.Info("Successfully fetched and validated data for %s", symbol)
		return &payload, nil
	}

	s.Logger.Error("Failed to fetch data for %s after %d attempts", symbol, maxRetries)
	return nil, lastErr
}

// -----------------------------------------------------------------------------

// waitBeforeRetry sleeps unless this was the final attempt.
func (s *AlphaVantageSource) waitBeforeRetry(attempt, maxRetries int, delay time.Duration) {
	if attempt < maxRetries {
		s.Logger.Info("Retrying in %v...", delay)
		s.Sleep(delay)
	}
}

// -----------------------------------------------------------------------------

func (s *AlphaVantageSource) get(symbol string) ([]byte, int, error) {
	req, err := http.NewRequest(http.MethodGet, s.queryURL(symbol, s.Config.API.APIKey), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", s.Config.Network.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}

	return body, resp.StatusCode, nil
}

// -----------------------------------------------------------------------------

// Probe checks upstream reachability with a HEAD request against the demo
// key, so no quote quota is consumed.
func (s *AlphaVantageSource) Probe() (int, error) {
	req, err := http.NewRequest(http.MethodHead, s.queryURL("IBM", "demo"), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", s.Config.Network.UserAgent)

	resp, err := s.ProbeClient.Do(req)
	if err != nil {
		return 0, helpers.NewNetworkError("API connectivity test failed", err)
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

// -----------------------------------------------------------------------------

func (s *AlphaVantageSource) queryURL(symbol, apiKey string) string {
	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", apiKey)
	return s.Config.API.BaseURL + "?" + q.Encode()
}
