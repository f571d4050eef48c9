package tools

import "github.com/petasbytes/runloop/run"

// Registry returns all tool definitions wired for the agent
func Registry() []ToolDefinition {
	return []ToolDefinition{AddNumbersDefinition, ClockDefinition, EchoDefinition}
}

// Catalog converts definitions into the provider-neutral specs advertised to
// the model.
func Catalog(defs []ToolDefinition) []run.ToolSpec {
	specs := make([]run.ToolSpec, 0, len(defs))
	for _, d := range defs {
		specs = append(specs, d.Spec())
	}
	return specs
}

// Names lists tool names in catalog order.
func Names(defs []ToolDefinition) []string {
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	return names
}
