package model

// Variable is one templating entry of an environment.
type Variable struct {
	Key     string `json:"key" yaml:"key" toml:"key"`
	Value   string `json:"value" yaml:"value" toml:"value"`
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
}

// Environment is a named, ordered set of variables.
type Environment struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Variables   []Variable `json:"variables" yaml:"variables"`
	// RemoteID links a local environment to its synced backend copy.
	RemoteID string `json:"-" yaml:"remote_id,omitempty"`
}

// Lookup returns the value of the first enabled variable with key.
func (e *Environment) Lookup(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, v := range e.Variables {
		if v.Enabled && v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// Set updates the first variable with key or appends a new enabled one.
func (e *Environment) Set(key, value string) {
	for i := range e.Variables {
		if e.Variables[i].Key == key {
			e.Variables[i].Value = value
			e.Variables[i].Enabled = true
			return
		}
	}
	e.Variables = append(e.Variables, Variable{Key: key, Value: value, Enabled: true})
}

// Unset removes every variable with key and reports whether any was removed.
func (e *Environment) Unset(key string) bool {
	kept := e.Variables[:0]
	removed := false
	for _, v := range e.Variables {
		if v.Key == key {
			removed = true
			continue
		}
		kept = append(kept, v)
	}
	e.Variables = kept
	return removed
}

// SetEnabled toggles every variable with key.
func (e *Environment) SetEnabled(key string, enabled bool) bool {
	found := false
	for i := range e.Variables {
		if e.Variables[i].Key == key {
			e.Variables[i].Enabled = enabled
			found = true
		}
	}
	return found
}
