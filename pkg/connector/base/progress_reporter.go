package base

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/source-coda/pkg/metrics"
)

// ProgressReporter tracks how far a remote traversal has got: documents,
// tables visited and API pages fetched. Long traversals get a periodic log line.
type ProgressReporter struct {
	logger           *zap.Logger
	metricsCollector *metrics.Collector

	documents int64
	tables    int64
	pages     int64
	records   int64

	startTime      time.Time
	reportInterval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(logger *zap.Logger, collector *metrics.Collector) *ProgressReporter {
	return &ProgressReporter{
		logger:           logger,
		metricsCollector: collector,
		startTime:        time.Now(),
		reportInterval:   10 * time.Second,
		stopCh:           make(chan struct{}),
	}
}

// Start begins periodic progress reporting
func (pr *ProgressReporter) Start() {
	pr.wg.Add(1)
	go func() {
		defer pr.wg.Done()
		ticker := time.NewTicker(pr.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-pr.stopCh:
				return
			case <-ticker.C:
				pr.logger.Info("progress update", pr.fields()...)
			}
		}
	}()
}

// Stop stops periodic reporting and logs a summary. It is safe to call more
// than once.
func (pr *ProgressReporter) Stop() {
	pr.stopOnce.Do(func() {
		close(pr.stopCh)
		pr.wg.Wait()

		pr.logger.Info("traversal completed", pr.fields()...)

		s := pr.GetSnapshot()
		pr.metricsCollector.RecordCounter("documents_visited", s.Documents)
		pr.metricsCollector.RecordCounter("tables_visited", s.Tables)
		pr.metricsCollector.RecordCounter("pages_fetched", s.Pages)
		pr.metricsCollector.RecordCounter("records_emitted", s.Records)
	})
}

// AddDocuments records n documents visited
func (pr *ProgressReporter) AddDocuments(n int) {
	atomic.AddInt64(&pr.documents, int64(n))
}

// AddTables records n tables visited
func (pr *ProgressReporter) AddTables(n int) {
	atomic.AddInt64(&pr.tables, int64(n))
}

// AddPages records n API pages fetched, from any endpoint
func (pr *ProgressReporter) AddPages(n int) {
	atomic.AddInt64(&pr.pages, int64(n))
}

// AddRecords records n records handed to the host
func (pr *ProgressReporter) AddRecords(n int) {
	atomic.AddInt64(&pr.records, int64(n))
}

// SetReportInterval sets the progress reporting interval. Call before Start.
func (pr *ProgressReporter) SetReportInterval(interval time.Duration) {
	pr.reportInterval = interval
}

// ProgressSnapshot represents a point-in-time progress snapshot
type ProgressSnapshot struct {
	Documents int64
	Tables    int64
	Pages     int64
	Records   int64
	Elapsed   time.Duration
}

// GetSnapshot returns a progress snapshot
func (pr *ProgressReporter) GetSnapshot() ProgressSnapshot {
	return ProgressSnapshot{
		Documents: atomic.LoadInt64(&pr.documents),
		Tables:    atomic.LoadInt64(&pr.tables),
		Pages:     atomic.LoadInt64(&pr.pages),
		Records:   atomic.LoadInt64(&pr.records),
		Elapsed:   time.Since(pr.startTime),
	}
}

func (pr *ProgressReporter) fields() []zap.Field {
	s := pr.GetSnapshot()
	return []zap.Field{
		zap.Int64("documents", s.Documents),
		zap.Int64("tables", s.Tables),
		zap.Int64("pages", s.Pages),
		zap.Int64("records", s.Records),
		zap.Duration("elapsed", s.Elapsed),
	}
}
