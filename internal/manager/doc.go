// Package manager owns the single active model slot and coordinates every
// request against the inference engine. It is structured into small files by
// concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: lifecycle states and the ModelState snapshot.
//   - errors.go: error taxonomy and helpers (IsValidation, IsNotFound, ...).
//   - normalize.go: option defaulting/merging, range validation, tool schema checks.
//   - vision.go: vision-capability rule table over manifest keys and family names.
//   - load.go: Unloaded -> Loading -> Loaded lifecycle with rollback on failure.
//   - generate.go: generation orchestrator (text/vision paths, streamed vs
//     buffered delivery, liveness guard, terminal-event contract).
//   - embed.go: embedding entry point (tokenize, forward, pooling).
//   - status.go: health/info/models reporting from last-known state.
//   - metrics.go: Prometheus domain metrics.
//
// Locking discipline: slot (RWMutex) makes loads exclusive against in-flight
// generations and embeddings, which hold it shared for their full duration.
// mu guards the snapshot fields with short critical sections so health/info
// never block behind a load. engineCh (size 1) serializes engine calls; the
// backend is not assumed reentrant.
//
// External packages should treat this package as the orchestration layer and
// use public methods only (NewWithConfig, Complete, Load, Embed, Health,
// Info, Models, Ready). Internal types are subject to change.
package manager
