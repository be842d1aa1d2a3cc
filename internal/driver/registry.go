// Package driver implements the per-model register decoders and the
// registry that resolves a configured device type name to one of them.
package driver

import (
	"fmt"
	"sort"

	"github.com/nexus-edge/field-logger/internal/domain"
)

// Factory builds a driver for a validated device descriptor. Factories
// reject descriptors whose register count cannot cover the model's layout,
// so layout mismatches fail at startup rather than mid-cycle.
type Factory func(desc domain.DeviceDescriptor) (domain.Driver, error)

// Registry maps configured device type names to driver factories. It is a
// flat name lookup: adding a new instrument model is one Register call plus
// one decode implementation.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given type name, replacing any
// previous registration.
func (r *Registry) Register(typeName string, f Factory) {
	r.factories[typeName] = f
}

// Resolve builds the driver for the descriptor's type name. An unknown name
// is a configuration error: fatal, never retried.
func (r *Registry) Resolve(desc domain.DeviceDescriptor) (domain.Driver, error) {
	f, ok := r.factories[desc.TypeName]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known types: %v)", domain.ErrUnknownDeviceType, desc.TypeName, r.Types())
	}
	return f(desc)
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns a registry with all built-in instrument models registered.
func Default() *Registry {
	r := NewRegistry()
	r.Register(TypeEnergyMeter, NewEnergyMeter)
	r.Register(TypeTemperatureLogger, NewTemperatureLogger)
	r.Register(TypeInverterStation, NewInverterStation)
	r.Register(TypeWeatherStation, NewWeatherStation)
	r.Register(TypeRegisterDump, NewRegisterDump)
	return r
}

// numeric unwraps a nullable scaled value for storage in a record field.
func numeric(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
