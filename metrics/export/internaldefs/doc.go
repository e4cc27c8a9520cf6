// Package internaldefs holds the shared metric name and bucket definitions
// used by every exporter under metrics/export.
//
// # Design
//
// Exporters map engine MetricIDs to stable external names. Those names must
// agree across backends, so they live here rather than being duplicated in
// each exporter. The definitions are plain data: counter and histogram name
// tables, the fixed histogram bounds, and two small helpers for shaping raw
// bucket slices.
//
// # Architecture boundaries
//
// This package imports the root package only for the MetricID constants.
// It performs no I/O, starts no goroutines, and holds no state.
//
// # What this package must NOT do
//
//   - Register anything with a metrics backend.
//   - Read snapshots or observe values.
//   - Import any exporter package.
package internaldefs
