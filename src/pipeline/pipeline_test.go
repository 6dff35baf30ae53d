package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"stock-pipeline/src/config"
	"stock-pipeline/src/helpers"
	"stock-pipeline/src/logger"
	"stock-pipeline/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Name() string {
	return "mock"
}

func (m *mockFetcher) Fetch(symbol string) (*models.MQuoteResponse, error) {
	args := m.Called(symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MQuoteResponse), args.Error(1)
}

func (m *mockFetcher) Probe() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Connect() error {
	return m.Called().Error(0)
}

func (m *mockStore) Initialize() error {
	return m.Called().Error(0)
}

func (m *mockStore) UpsertQuote(data *models.MQuoteResponse) error {
	return m.Called(data).Error(0)
}

func (m *mockStore) PruneOlderThan(retentionDays int) (int64, error) {
	args := m.Called(retentionDays)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) Stats() (*models.MPipelineStats, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MPipelineStats), args.Error(1)
}

func (m *mockStore) Ping() error {
	return m.Called().Error(0)
}

func (m *mockStore) Version() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

// -----------------------------------------------------------------------------

func pipelineConfig(symbols []string) *config.Config {
	cfg := &config.Config{MConfig: config.Default()}
	cfg.API.APIKey = "test-key"
	cfg.Storage.DBType = "sqlite"
	cfg.Storage.DBPath = "test.db"
	cfg.Pipeline.Symbols = symbols
	return cfg
}

func newTestPipeline(symbols []string) (*Pipeline, *mockFetcher, *mockStore) {
	fetcher := &mockFetcher{}
	store := &mockStore{}
	p := NewPipeline(pipelineConfig(symbols), logger.NewLogger("ERROR", "PipelineTest"), fetcher, store)
	return p, fetcher, store
}

func quoteFor(symbol string) *models.MQuoteResponse {
	return &models.MQuoteResponse{GlobalQuote: &models.MGlobalQuote{
		Symbol:           symbol,
		Price:            "189.3000",
		LatestTradingDay: "2026-08-28",
	}}
}

// -----------------------------------------------------------------------------

func TestValidateEnvironment_ReportsAllMissingSettings(t *testing.T) {
	p, _, _ := newTestPipeline([]string{"IBM"})
	p.Config.API.APIKey = ""
	p.Config.Storage.DBType = "postgres"
	p.Config.Storage.Host = ""
	p.Config.Storage.Database = ""
	p.Config.Storage.User = ""
	p.Config.Storage.Password = ""

	err := p.ValidateEnvironment()
	var cerr *helpers.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, err.Error(), "ALPHA_VANTAGE_API_KEY")
	assert.Contains(t, err.Error(), "POSTGRES_HOST")
	assert.Contains(t, err.Error(), "POSTGRES_PASSWORD")
}

func TestValidateEnvironment_PassesWhenComplete(t *testing.T) {
	p, _, _ := newTestPipeline([]string{"IBM"})
	require.NoError(t, p.ValidateEnvironment())
}

// -----------------------------------------------------------------------------

func TestFetchAndStoreAll_AllSymbolsSucceed(t *testing.T) {
	p, fetcher, store := newTestPipeline(nil)

	for _, s := range []string{"IBM", "AAPL"} {
		q := quoteFor(s)
		fetcher.On("Fetch", s).Return(q, nil).Once()
		store.On("UpsertQuote", q).Return(nil).Once()
	}

	report, err := p.FetchAndStoreAll([]string{"IBM", "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Successes)
	assert.Equal(t, 2, report.Total)
	fetcher.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestFetchAndStoreAll_FetchFailureSkipsStorage(t *testing.T) {
	p, fetcher, store := newTestPipeline(nil)

	fetcher.On("Fetch", "BAD").Return(nil, helpers.NewNetworkError("request failed for BAD", nil)).Once()
	good := quoteFor("GOOD")
	fetcher.On("Fetch", "GOOD").Return(good, nil).Once()
	store.On("UpsertQuote", good).Return(nil).Once()

	report, err := p.FetchAndStoreAll([]string{"BAD", "GOOD"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Successes)

	require.Len(t, report.Results, 2)
	assert.False(t, report.Results[0].Success)
	assert.Contains(t, report.Results[0].Reason, "request failed")
	assert.True(t, report.Results[1].Success)

	store.AssertNumberOfCalls(t, "UpsertQuote", 1)
}

func TestFetchAndStoreAll_StorageFailureDoesNotAbortOthers(t *testing.T) {
	p, fetcher, store := newTestPipeline(nil)

	first := quoteFor("IBM")
	second := quoteFor("AAPL")
	fetcher.On("Fetch", "IBM").Return(first, nil).Once()
	fetcher.On("Fetch", "AAPL").Return(second, nil).Once()
	store.On("UpsertQuote", first).Return(helpers.NewDatabaseError("failed to store data for IBM", nil)).Once()
	store.On("UpsertQuote", second).Return(nil).Once()

	report, err := p.FetchAndStoreAll([]string{"IBM", "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Successes)
	fetcher.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestFetchAndStoreAll_SuccessGate(t *testing.T) {
	cases := []struct {
		failures  int
		successes int
		wantErr   bool
	}{
		{failures: 0, successes: 4, wantErr: false},
		{failures: 1, successes: 3, wantErr: false},
		{failures: 2, successes: 2, wantErr: false}, // exactly half still passes
		{failures: 3, successes: 1, wantErr: true},
		{failures: 4, successes: 0, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d of 4 succeed", tc.successes), func(t *testing.T) {
			p, fetcher, store := newTestPipeline(nil)

			var symbols []string
			for i := 0; i < tc.failures; i++ {
				s := fmt.Sprintf("FAIL%d", i)
				symbols = append(symbols, s)
				fetcher.On("Fetch", s).Return(nil, helpers.NewNetworkError("unreachable", nil)).Once()
			}
			for i := 0; i < tc.successes; i++ {
				s := fmt.Sprintf("OK%d", i)
				symbols = append(symbols, s)
				q := quoteFor(s)
				fetcher.On("Fetch", s).Return(q, nil).Once()
				store.On("UpsertQuote", q).Return(nil).Once()
			}

			report, err := p.FetchAndStoreAll(symbols)
			require.NotNil(t, report)
			assert.Equal(t, tc.successes, report.Successes)

			if tc.wantErr {
				var perr *helpers.PipelineError
				require.ErrorAs(t, err, &perr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestFetchAndStoreAll_EmptySymbolListFailsGate(t *testing.T) {
	p, _, _ := newTestPipeline(nil)

	report, err := p.FetchAndStoreAll(nil)
	require.Error(t, err)
	assert.Zero(t, report.Total)
}

// -----------------------------------------------------------------------------

func TestCleanup_SwallowsPruneErrors(t *testing.T) {
	p, _, store := newTestPipeline([]string{"IBM"})

	store.On("PruneOlderThan", 90).Return(int64(0), helpers.NewDatabaseError("failed to clean up old records", errors.New("locked"))).Once()
	assert.False(t, p.Cleanup(90))

	store.On("PruneOlderThan", 30).Return(int64(12), nil).Once()
	assert.True(t, p.Cleanup(30))

	store.AssertExpectations(t)
}

// -----------------------------------------------------------------------------

func TestRun_StopsBeforeAnyIOWhenEnvironmentIncomplete(t *testing.T) {
	p, fetcher, store := newTestPipeline([]string{"IBM"})
	p.Config.API.APIKey = ""

	err := p.Run()
	var cerr *helpers.ConfigurationError
	require.ErrorAs(t, err, &cerr)

	store.AssertNotCalled(t, "Initialize")
	store.AssertNotCalled(t, "UpsertQuote", mock.Anything)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything)
}

func TestRun_StopsWhenStorageInitFails(t *testing.T) {
	p, fetcher, store := newTestPipeline([]string{"IBM"})

	store.On("Initialize").Return(helpers.NewDatabaseError("failed to connect to database", nil)).Once()

	err := p.Run()
	var derr *helpers.DatabaseError
	require.ErrorAs(t, err, &derr)

	fetcher.AssertNotCalled(t, "Fetch", mock.Anything)
	store.AssertNotCalled(t, "PruneOlderThan", mock.Anything)
}

func TestRun_CleansUpEvenWhenGateFails(t *testing.T) {
	p, fetcher, store := newTestPipeline([]string{"IBM", "AAPL"})

	store.On("Initialize").Return(nil).Once()
	store.On("Close").Return(nil).Once()
	fetcher.On("Fetch", mock.Anything).Return(nil, helpers.NewNetworkError("unreachable", nil)).Twice()
	store.On("PruneOlderThan", 90).Return(int64(0), nil).Once()

	err := p.Run()
	var perr *helpers.PipelineError
	require.ErrorAs(t, err, &perr)

	store.AssertExpectations(t)
}

func TestRunSingle_StoresOneSymbol(t *testing.T) {
	p, fetcher, store := newTestPipeline([]string{"IBM"})

	store.On("Initialize").Return(nil).Once()
	store.On("Close").Return(nil).Once()
	q := quoteFor("TSLA")
	fetcher.On("Fetch", "TSLA").Return(q, nil).Once()
	store.On("UpsertQuote", q).Return(nil).Once()

	require.NoError(t, p.RunSingle("TSLA"))
	store.AssertNotCalled(t, "PruneOlderThan", mock.Anything)
	fetcher.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestRunSingle_PropagatesTypedFailure(t *testing.T) {
	p, fetcher, store := newTestPipeline([]string{"IBM"})

	store.On("Initialize").Return(nil).Once()
	store.On("Close").Return(nil).Once()
	fetcher.On("Fetch", "GOOGL").Return(nil, helpers.NewDataSourceError("API error for GOOGL: invalid call", nil)).Once()

	err := p.RunSingle("GOOGL")
	var derr *helpers.DataSourceError
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, err.Error(), "invalid call")
	store.AssertNotCalled(t, "UpsertQuote", mock.Anything)
}

func TestRun_FullSuccess(t *testing.T) {
	p, fetcher, store := newTestPipeline([]string{"IBM"})

	store.On("Initialize").Return(nil).Once()
	store.On("Close").Return(nil).Once()
	q := quoteFor("IBM")
	fetcher.On("Fetch", "IBM").Return(q, nil).Once()
	store.On("UpsertQuote", q).Return(nil).Once()
	store.On("PruneOlderThan", 90).Return(int64(3), nil).Once()

	require.NoError(t, p.Run())
	fetcher.AssertExpectations(t)
	store.AssertExpectations(t)
}
