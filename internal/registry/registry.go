package registry

import (
	"sync"
)

// Registry manages pluggable provisioner backends
type Registry struct {
	mu sync.RWMutex

	provisioners map[string]ProvisionerFactory
}

// ProvisionerFactory creates provisioner instances
type ProvisionerFactory func(config map[string]interface{}) (interface{}, error)

var (
	registryInstance *Registry
	registryOnce     sync.Once
)

// GetRegistry returns the singleton registry instance
func GetRegistry() *Registry {
	registryOnce.Do(func() {
		registryInstance = &Registry{
			provisioners: make(map[string]ProvisionerFactory),
		}
	})
	return registryInstance
}

// RegisterProvisioner registers a provisioner factory under a name
func (r *Registry) RegisterProvisioner(name string, factory ProvisionerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.provisioners[name] = factory
}

// GetProvisioner returns the factory registered under name
func (r *Registry) GetProvisioner(name string) (ProvisionerFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.provisioners[name]
	return factory, ok
}

// Provisioners returns the registered backend names
func (r *Registry) Provisioners() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.provisioners))
	for name := range r.provisioners {
		names = append(names, name)
	}
	return names
}
