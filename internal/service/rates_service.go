package service

import (
	"sync"
	"time"

	"github.com/oliveigah/banking-prototype/internal/core/domain"
	"github.com/oliveigah/banking-prototype/internal/core/ports"
	"github.com/oliveigah/banking-prototype/pkg/apperror"
	"github.com/oliveigah/banking-prototype/pkg/logger"

	"github.com/jasonlvhit/gocron"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// exchangeFolder holds the hourly rate table snapshots.
const exchangeFolder = "exchange"

// bucketLayout is the time-bucket key format for snapshots (YYYYMMDDHH).
const bucketLayout = "2006010215"

// RateSource provides the current rate table keyed by currency, expressed
// against the pivot.
type RateSource interface {
	Fetch() (map[domain.Currency]decimal.Decimal, error)
}

// StaticRateSource serves a fixed table, typically the configured seed.
type StaticRateSource struct {
	table map[domain.Currency]decimal.Decimal
}

// NewStaticRateSource builds a source from the config seed map.
func NewStaticRateSource(seed map[string]float64) *StaticRateSource {
	table := make(map[domain.Currency]decimal.Decimal, len(seed))
	for code, rate := range seed {
		table[domain.Currency(code)] = decimal.NewFromFloat(rate)
	}
	return &StaticRateSource{table: table}
}

func (s *StaticRateSource) Fetch() (map[domain.Currency]decimal.Decimal, error) {
	out := make(map[domain.Currency]decimal.Decimal, len(s.table))
	for c, r := range s.table {
		out[c] = r
	}
	return out, nil
}

// RatesService owns the process-wide rate table. Reads are concurrent; the
// refresher is the single writer and replaces entries per key.
type RatesService struct {
	mu      sync.RWMutex
	table   map[domain.Currency]decimal.Decimal
	source  RateSource
	storage ports.Storage

	interval time.Duration
	sched    *gocron.Scheduler
	stop     chan bool

	log zerolog.Logger
}

// NewRatesService seeds the table from the source. The first snapshot is
// appended to storage immediately.
func NewRatesService(source RateSource, storage ports.Storage, interval time.Duration, log zerolog.Logger) (*RatesService, error) {
	s := &RatesService{
		table:    make(map[domain.Currency]decimal.Decimal),
		source:   source,
		storage:  storage,
		interval: interval,
		log:      logger.ForComponent(log, "rates"),
	}
	if err := s.Refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// Rate returns the pivot rate for a currency.
func (s *RatesService) Rate(currency domain.Currency) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rate, ok := s.table[currency]
	return rate, ok
}

// Convert computes round(amount * rate[to]/rate[from]) with the effective
// rate, rounding half away from zero.
func (s *RatesService) Convert(amount int64, from, to domain.Currency) (int64, decimal.Decimal, error) {
	s.mu.RLock()
	fromRate, fromOK := s.table[from]
	toRate, toOK := s.table[to]
	s.mu.RUnlock()

	if !fromOK {
		return 0, decimal.Zero, apperror.ErrUnknownCurrency(string(from))
	}
	if !toOK {
		return 0, decimal.Zero, apperror.ErrUnknownCurrency(string(to))
	}

	rate := toRate.Div(fromRate)
	converted := decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
	return converted, rate, nil
}

// Refresh pulls the table from the source, swaps entries in, and appends the
// resulting table to the exchange folder under the current hour bucket.
func (s *RatesService) Refresh() error {
	table, err := s.source.Fetch()
	if err != nil {
		return err
	}

	s.mu.Lock()
	for currency, rate := range table {
		s.table[currency] = rate
	}
	snapshot := make(map[string]string, len(s.table))
	for currency, rate := range s.table {
		snapshot[string(currency)] = rate.String()
	}
	s.mu.Unlock()

	bucket := time.Now().UTC().Format(bucketLayout)
	if err := s.storage.StoreAsync(exchangeFolder, bucket, snapshot); err != nil {
		s.log.Error().Err(err).Str("bucket", bucket).Msg("rates snapshot enqueue failed")
	}
	return nil
}

// Start schedules the periodic refresh.
func (s *RatesService) Start() {
	s.sched = gocron.NewScheduler()
	seconds := uint64(s.interval / time.Second)
	s.sched.Every(seconds).Seconds().Do(s.refreshJob)
	s.stop = s.sched.Start()
	s.log.Info().Dur("interval", s.interval).Msg("rates refresher started")
}

// Stop halts the refresher. Safe to call when Start was never invoked.
func (s *RatesService) Stop() {
	if s.stop != nil {
		s.stop <- true
		s.stop = nil
	}
}

func (s *RatesService) refreshJob() {
	if err := s.Refresh(); err != nil {
		s.log.Error().Err(err).Msg("rates refresh failed")
	}
}
