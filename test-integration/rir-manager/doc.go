// Package integration runs rir-manager end to end against a mock ARIN
// Reg-RWS server: configuration loading, registry seeding, the HTTP API,
// the job worker and the sync engine over the in-memory store.
package integration
