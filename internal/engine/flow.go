package engine

// ResolveFlow looks up the step the context is waiting on. It reports false
// when no flow is active or when the flow or step id is unknown.
func ResolveFlow(ctx Context, flows []Flow) (Flow, Step, bool) {
	if ctx.CurrentFlow == "" || ctx.NextStep == "" {
		return Flow{}, Step{}, false
	}
	for _, flow := range flows {
		if flow.ID != ctx.CurrentFlow {
			continue
		}
		for _, step := range flow.Steps {
			if step.ID == ctx.NextStep {
				return flow, step, true
			}
		}
		return Flow{}, Step{}, false
	}
	return Flow{}, Step{}, false
}
