// Package license contains the core domain model for the license
// application lifecycle: the LicenseApplication entity, its status state
// machine, device fingerprint canonicalization, and key generation.
//
// The package is persistence-free. All durable state lives behind the
// store interfaces in internal/store; services in internal/services
// orchestrate the lifecycle on top of both.
//
// State machine:
//
//	(none) --submit--> pending --review(approve)--> approved (terminal)
//	                      |
//	                      +------review(reject)---> rejected (terminal)
//
// No edge ever leaves approved or rejected. Expiry is a verdict computed
// at verification time, never a stored status.
package license
