// Package coordinator runs the scheduled reconciliation of every active
// registry config.
//
// On each tick of the cron schedule (daily by default) the coordinator lists
// the active configs and, for each, the credentials that last synced any of
// its organizations, contacts or networks. A config nobody has synced yet is
// run with its first credential; a config without credentials is skipped
// with a warning.
//
// Every (config, credential) pair is one unit of work:
//
//	for each active config
//	    for each credential of the config
//	        engine.Sync(config, credential)
//
// Units are isolated from each other. A unit that fails, or panics, is
// logged and counted in the run summary and the remaining units still run.
//
// # Usage
//
//	c := coordinator.New(engine, store, coordinator.WithSchedule("0 3 * * *"))
//	go func() { _ = c.Start(ctx) }()
//	...
//	_ = c.Stop()
//
// RunOnce performs a single pass synchronously and is what the sync CLI
// command uses.
package coordinator
