package rewrite

import "sync"

// StatsSnapshot is a point-in-time copy of the rewriter counters.
type StatsSnapshot struct {
	TotalRequests   int
	CacheHits       int
	NoRewriting     int
	CacheSize       int
	ProviderSuccess map[string]int
	ProviderFailed  map[string]int
}

// stats holds the rewriter counters behind one mutex. Counts are updated on
// the query path, so the critical sections stay tiny.
type stats struct {
	mu              sync.Mutex
	totalRequests   int
	cacheHits       int
	noRewriting     int
	providerSuccess map[string]int
	providerFailed  map[string]int
}

func (s *stats) incTotal() {
	s.mu.Lock()
	s.totalRequests++
	s.mu.Unlock()
}

func (s *stats) incCacheHit() {
	s.mu.Lock()
	s.cacheHits++
	s.mu.Unlock()
}

func (s *stats) incNoRewriting() {
	s.mu.Lock()
	s.noRewriting++
	s.mu.Unlock()
}

func (s *stats) incProviderSuccess(name string) {
	s.mu.Lock()
	if s.providerSuccess == nil {
		s.providerSuccess = make(map[string]int)
	}
	s.providerSuccess[name]++
	s.mu.Unlock()
}

func (s *stats) incProviderFailed(name string) {
	s.mu.Lock()
	if s.providerFailed == nil {
		s.providerFailed = make(map[string]int)
	}
	s.providerFailed[name]++
	s.mu.Unlock()
}

func (s *stats) snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := StatsSnapshot{
		TotalRequests:   s.totalRequests,
		CacheHits:       s.cacheHits,
		NoRewriting:     s.noRewriting,
		ProviderSuccess: make(map[string]int, len(s.providerSuccess)),
		ProviderFailed:  make(map[string]int, len(s.providerFailed)),
	}
	for name, count := range s.providerSuccess {
		snapshot.ProviderSuccess[name] = count
	}
	for name, count := range s.providerFailed {
		snapshot.ProviderFailed[name] = count
	}
	return snapshot
}
