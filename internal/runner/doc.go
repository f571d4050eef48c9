// Package runner drives one run of a tool-using agent: the bounded loop of
// model calls and tool dispatch, and the policy that decides when it stops.
//
// Invariants:
//   - every model call and tool round is recorded as steps before the loop
//     reacts to its outcome; no step is ever silently dropped.
//   - the tool_result step mirrors its tool_invocation step index-for-index,
//     even though execution is concurrent.
//   - exactly one termination step ends the run; ordinary failures surface in
//     the Result, never as a Go error from Execute.
//
// Flow:
//
//	model_call -> policy -> tool_invocation/tool_result -> policy -> ... -> termination
package runner
