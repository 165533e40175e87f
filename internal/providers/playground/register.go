package playground

import (
	"fmt"

	"github.com/GriffinCanCode/benchplay/internal/service"
)

// Register adds the console, execute and workspace providers to registry.
func Register(registry *service.Registry, d Deps) error {
	providers := []service.Provider{
		NewConsole(d),
		NewExecutor(d),
		NewWorkspace(d),
	}
	for _, p := range providers {
		if err := registry.Register(p); err != nil {
			return fmt.Errorf("register %s: %w", p.Definition().ID, err)
		}
	}
	return nil
}
