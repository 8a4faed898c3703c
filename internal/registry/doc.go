// Package registry defines the boundary between rir-manager and a Regional
// Internet Registry.
//
// # Layers
//
// Backend is the raw transport contract implemented once per RIR. Its methods
// return typed values and categorized errors (see Error and ErrorCategory).
// The ARIN implementation lives in the arin subpackage.
//
// Client is the view consumed by the sync engine and the write paths. Every
// method returns nil when the registry could not answer, after retries and
// logging have been applied by the retry subpackage:
//
//	backend, err := backends.Connect(cfg, apiKey)
//	if err != nil {
//		return err
//	}
//	client := retry.New(backend, retry.WithMetrics(metrics))
//	if org := client.GetOrganization(ctx, cfg.OrgHandle); org != nil {
//		...
//	}
//
// # Backends
//
// Backends maps RIR names to factories. Names are case-insensitive. An RIR
// without a factory yields ErrUnsupportedRIR.
//
// # Conversions
//
// Organization, Contact, Network and Customer carry ToModel methods that map
// a registry record onto the local row for a config. Local-only columns such
// as IPAM links are left zero so upserts do not overwrite them.
package registry
