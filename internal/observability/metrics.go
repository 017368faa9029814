package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	conversionCount map[string]int64
	providerCount   map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
		conversionCount: make(map[string]int64),
		providerCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordConversion counts completed conversions by family and plan.
func (m *Metrics) RecordConversion(family, plan string) {
	if m == nil {
		return
	}
	key := family + "|" + plan
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversionCount[key]++
}

// RecordProviderCall counts payment provider round trips by operation and outcome.
func (m *Metrics) RecordProviderCall(operation, outcome string) {
	if m == nil {
		return
	}
	key := operation + "|" + outcome
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providerCount[key]++
}

// ConversionCount returns the counter for a family|plan pair.
func (m *Metrics) ConversionCount(family, plan string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversionCount[family+"|"+plan]
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
