package ports

import "go.trai.ch/rig/internal/core/domain"

// PlanLoader defines the interface for loading provisioning plans.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type PlanLoader interface {
	// Load reads and validates the plan at path.
	Load(path string) (*domain.Plan, error)
}
