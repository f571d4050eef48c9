// Package tools defines tool contracts and implementations.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - Builtins: add_numbers, clock, echo.
//   - Executor: name-keyed dispatch running each batch concurrently while
//     reporting results in invocation order.
package tools
