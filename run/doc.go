// Package run defines the data model for a single agent run: the task and
// config inputs, the role-tagged message history, the step history, and the
// mutable RunState that ties them together.
//
// Invariants owned here:
//   - step indices are dense, zero-based, and strictly increasing; ids derive
//     from the index alone.
//   - message and step histories are append-only.
//   - status moves forward only: idle -> running -> {completed | failed | terminated}.
//   - TotalToolCalls equals the summed lengths of all tool_result steps.
//   - at most one termination step, and once present it is the last step.
package run
