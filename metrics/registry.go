package metrics

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds a name -> metric mapping, mirroring go-ethereum's
// metrics.Registry API (Register/Unregister/Each/GetOrRegister).
type Registry interface {
	Each(func(string, interface{}))
	Get(string) interface{}
	GetOrRegister(string, func() interface{}) interface{}
	Register(string, interface{}) error
	Unregister(string)
}

// NewRegistry constructs an empty Registry.
func NewRegistry() Registry {
	return &standardRegistry{metrics: make(map[string]interface{})}
}

type standardRegistry struct {
	mu      sync.Mutex
	metrics map[string]interface{}
}

func (r *standardRegistry) Each(f func(string, interface{})) {
	r.mu.Lock()
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	snapshot := make([]interface{}, len(names))
	for i, name := range names {
		snapshot[i] = r.metrics[name]
	}
	r.mu.Unlock()

	for i, name := range names {
		f(name, snapshot[i])
	}
}

func (r *standardRegistry) Get(name string) interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics[name]
}

func (r *standardRegistry) GetOrRegister(name string, factory func() interface{}) interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.metrics[name]; ok {
		return m
	}
	m := factory()
	r.metrics[name] = m
	return m
}

func (r *standardRegistry) Register(name string, metric interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.metrics[name]; ok {
		return fmt.Errorf("metrics: %q already registered", name)
	}
	r.metrics[name] = metric
	return nil
}

func (r *standardRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.metrics, name)
}
