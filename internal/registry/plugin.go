package registry

import (
	"fmt"
	"plugin"
)

// RegisterProvisionersFunc is the function signature expected from
// plugins. Plugins must export a function with this signature named
// "RegisterProvisioners".
type RegisterProvisionersFunc func(reg *Registry) error

// LoadPlugin loads provisioner backends from a Go plugin file
func LoadPlugin(path string) error {
	p, err := plugin.Open(path)
	if err != nil {
		return fmt.Errorf("opening plugin %s: %w", path, err)
	}

	sym, err := p.Lookup("RegisterProvisioners")
	if err != nil {
		return fmt.Errorf("plugin %s does not export RegisterProvisioners: %w", path, err)
	}

	register, ok := sym.(func(reg *Registry) error)
	if !ok {
		return fmt.Errorf("plugin %s RegisterProvisioners has wrong signature", path)
	}

	if err := register(GetRegistry()); err != nil {
		return fmt.Errorf("plugin %s registration failed: %w", path, err)
	}

	return nil
}
