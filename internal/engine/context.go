package engine

// Context keys as they are persisted with the conversation.
const (
	KeyLastIntent    = "lastIntent"
	KeyCurrentFlow   = "currentFlow"
	KeyNextStep      = "nextStep"
	KeyGreeted       = "greeted"
	KeyHelpRequested = "helpRequested"
	KeyEnded         = "ended"
)

// Context is the state carried between turns of one conversation.
//
// A turn never mutates the Context it receives. It returns a new value that
// replaces the stored one verbatim, so anything not set on the returned
// Context is gone after the turn.
type Context struct {
	LastIntent    string
	CurrentFlow   string
	NextStep      string
	Greeted       bool
	HelpRequested bool
	// Ended is set by the farewell reply. Nothing reads it back.
	Ended bool

	// Extra holds keys the engine does not interpret; they are carried forward.
	Extra map[string]any
}

// ContextFromMap decodes a stored context. Known keys holding a value of the
// wrong type are dropped, unknown keys end up in Extra.
func ContextFromMap(m map[string]any) Context {
	var c Context
	for key, value := range m {
		switch key {
		case KeyLastIntent:
			c.LastIntent, _ = value.(string)
		case KeyCurrentFlow:
			c.CurrentFlow, _ = value.(string)
		case KeyNextStep:
			c.NextStep, _ = value.(string)
		case KeyGreeted:
			c.Greeted, _ = value.(bool)
		case KeyHelpRequested:
			c.HelpRequested, _ = value.(bool)
		case KeyEnded:
			c.Ended, _ = value.(bool)
		default:
			if c.Extra == nil {
				c.Extra = make(map[string]any)
			}
			c.Extra[key] = value
		}
	}
	return c
}

// Map encodes the context for storage. Unset fields are omitted.
func (c Context) Map() map[string]any {
	m := make(map[string]any, len(c.Extra)+6)
	for key, value := range c.Extra {
		m[key] = value
	}
	if c.LastIntent != "" {
		m[KeyLastIntent] = c.LastIntent
	}
	if c.CurrentFlow != "" {
		m[KeyCurrentFlow] = c.CurrentFlow
	}
	if c.NextStep != "" {
		m[KeyNextStep] = c.NextStep
	}
	if c.Greeted {
		m[KeyGreeted] = true
	}
	if c.HelpRequested {
		m[KeyHelpRequested] = true
	}
	if c.Ended {
		m[KeyEnded] = true
	}
	return m
}

func (c Context) clone() Context {
	out := c
	if c.Extra != nil {
		out.Extra = make(map[string]any, len(c.Extra))
		for key, value := range c.Extra {
			out.Extra[key] = value
		}
	}
	return out
}
