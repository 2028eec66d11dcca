// Package spendwise provides a lightweight meta-module that re-exports from submodules
// This is the main entry point for the SpendWise state library
// Users should import specific modules based on their needs:
//   - github.com/itsneelabh/spendwise/core - Types, configuration, persistence backends
//   - github.com/itsneelabh/spendwise/cart - Budget-constrained cart state machine
//   - github.com/itsneelabh/spendwise/list - Shopping list state machine
//   - github.com/itsneelabh/spendwise/telemetry - OpenTelemetry observability
package spendwise

import (
	"github.com/itsneelabh/spendwise/core"
)

// Re-export core types so simple embedders only import this package
type (
	// Identity types
	Identity         = core.Identity
	Role             = core.Role
	IdentityResolver = core.IdentityResolver
	StaticResolver   = core.StaticResolver

	// Catalog types
	Product = core.Product
	Cents   = core.Cents

	// Configuration types
	Config          = core.Config
	Option          = core.Option
	MemoryConfig    = core.MemoryConfig
	ArchiveConfig   = core.ArchiveConfig
	TelemetryConfig = core.TelemetryConfig
	LoggingConfig   = core.LoggingConfig

	// Interfaces
	Logger     = core.Logger
	Memory     = core.Memory
	Telemetry  = core.Telemetry
	Span       = core.Span
	Rehydrator = core.Rehydrator

	// Error types
	StateError = core.StateError
)

// Re-export constants
const (
	RoleCustomer   = core.RoleCustomer
	RoleStoreOwner = core.RoleStoreOwner
	GuestPrincipal = core.GuestPrincipal
)

// Re-export core functions
var (
	NewConfig          = core.NewConfig
	DefaultConfig      = core.DefaultConfig
	NewStaticResolver  = core.NewStaticResolver
	Guest              = core.Guest
	NewInMemoryStore   = core.NewInMemoryStore
	NewMemoryStore     = core.NewMemoryStore
	NewRedisStore      = core.NewRedisStore
	NewPebbleStore     = core.NewPebbleStore
	SanitizeProduct    = core.SanitizeProduct
	Namespace          = core.Namespace

	// Configuration options
	WithName            = core.WithName
	WithMemoryProvider  = core.WithMemoryProvider
	WithRedisURL        = core.WithRedisURL
	WithPebblePath      = core.WithPebblePath
	WithMemoryTTL       = core.WithMemoryTTL
	WithArchiveProvider = core.WithArchiveProvider
	WithArchiveRedisURL = core.WithArchiveRedisURL
	WithTelemetry       = core.WithTelemetry
	WithLogLevel        = core.WithLogLevel
	WithLogFormat       = core.WithLogFormat
	WithConfigFile      = core.WithConfigFile

	// Error helpers
	IsNotInitialized     = core.IsNotInitialized
	IsConfigurationError = core.IsConfigurationError
	IsRetryable          = core.IsRetryable
)
