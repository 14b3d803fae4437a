package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryArchive keeps run reports in memory. It backs local runs without a
// storage account and the test suites.
type MemoryArchive struct {
	mu      sync.RWMutex
	reports map[string][]byte
}

var _ Archive = (*MemoryArchive)(nil)

// NewMemoryArchive creates an empty in-memory archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{reports: make(map[string][]byte)}
}

func (a *MemoryArchive) Store(name string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	a.reports[name] = copied
	return nil
}

func (a *MemoryArchive) Retrieve(name string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	data, ok := a.reports[name]
	if !ok {
		return nil, fmt.Errorf("report %s not found", name)
	}
	return data, nil
}

func (a *MemoryArchive) List(prefix string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var names []string
	for name := range a.reports {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (a *MemoryArchive) Delete(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.reports[name]; !ok {
		return fmt.Errorf("report %s not found", name)
	}
	delete(a.reports, name)
	return nil
}
