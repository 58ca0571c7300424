// Package state defines persistence-facing contracts for the raw, per-host
// plugin options that feed a Manager, plus a Loader that turns a stored
// document into an initialized Manager.
//
// Responsibilities:
//   - Store only loads/saves one raw user options document for one Ref.
//   - Loader reads the document, builds a Manager with the plugin defaults,
//     binds the host and runs Init so invalid documents never reach traffic.
//   - Loader.Mutate validates an edited document through the same Init path
//     before saving it.
//
// Data flow:
//
//	Store -> Loader -> overrides.NewManager(...).Init(...) -> *overrides.Manager
//
// Deterministic keys:
//
//	Ref.Identifier() renders `host/<host-id>/<plugin>` for host scoped
//	documents and `global/<plugin>` when no host is set.
package state
