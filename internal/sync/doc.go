// Package sync reconciles the local mirror of registry objects with the
// upstream registry for one registry config.
//
// # Engine
//
// Engine.Sync walks the configured scopes in a fixed order:
//
//   - Organization: the config's root org handle is fetched and upserted.
//   - Contacts: each POC referenced by the organization is fetched and
//     upserted with a link to the organization.
//   - Networks: every local aggregate of the config's RIR is looked up by
//     address range. Matches are upserted as root allocations together with
//     their customer.
//   - Child prefixes: prefixes inside each processed aggregate are looked up
//     the same way and upserted as prefix-linked sub-blocks. This step runs
//     inline, or as a queued job when the engine has a child discovery queue.
//
// A registry lookup that returns nothing is never fatal. Organizations,
// contacts and customers produce an error audit entry; unallocated ranges are
// skipped without one. Only store failures abort a run, reported as *Error.
// The config's last sync time is stamped at the end of every run.
//
// # Linking
//
// Linker matches a network's net blocks to an exact local aggregate or
// prefix. The engine uses it to link networks that were mirrored without
// either, when auto-linking is enabled.
//
// # Coordinator Package
//
// The sync/coordinator subpackage schedules Engine runs for every active
// config. See internal/sync/coordinator for details.
package sync
