// Package core defines the domain model and service layer interfaces for the todo API.
//
// The core package provides:
//   - Domain types (Todo, TodoInput)
//   - The error-kind enumeration shared by the service and HTTP layers
//   - Service layer interfaces consumed by the HTTP handlers and the admin CLI
//   - The Redis counter backing the distributed request limiter, and the
//     circuit breaker that suspends it while Redis is failing
//
// Service interfaces are defined here and implemented in the service package.
// Handlers never talk to storage directly.
package core
