// Package services implements the business logic layer of the license
// portal. It sits between the HTTP handlers and the store, centralizing
// the rules for application submission, review decisions, and license
// verification.
//
// Services follow these architectural principles:
//
//	1. Interface-driven design for testability
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection for loose coupling
//	4. Error handling via tagged domain errors
//
// Authorization is enforced here, not in the handlers: every operation
// that requires a role receives the caller's identity and re-checks it,
// so a handler wiring mistake cannot widen access.
package services
