// Package registry provides the static model registry: the mapping from a
// public model identifier to its provider, upstream model name, endpoint and
// generation limits. Entries are immutable and defined at process start.
package registry

// Provider identifies which upstream a model is served by.
type Provider string

const (
	// ProviderAntigravity routes through the Google generative-content API.
	ProviderAntigravity Provider = "antigravity"
	// ProviderCodex routes through the ChatGPT responses API.
	ProviderCodex Provider = "codex"
)

// ThinkingMode selects how reasoning is configured for a model.
type ThinkingMode int

const (
	// ThinkingNone disables reasoning configuration.
	ThinkingNone ThinkingMode = iota
	// ThinkingBudget bounds reasoning by a fixed token budget.
	ThinkingBudget
	// ThinkingLevel categorizes reasoning effort (low/medium/high).
	ThinkingLevel
)

// ThinkingConfig describes the reasoning knob carried by a model entry.
type ThinkingConfig struct {
	Mode   ThinkingMode
	Budget int
	Level  string
}

// ModelEntry describes one public model.
type ModelEntry struct {
	ID            string
	DisplayName   string
	Provider      Provider
	UpstreamModel string
	EndpointBase  string
	ContextLimit  int
	OutputLimit   int
	Thinking      ThinkingConfig
	Created       int64
}

// Registry is an immutable index of model entries keyed by public id.
type Registry struct {
	entries []ModelEntry
	index   map[string]int
}

// New builds a registry from entries. Later duplicates of a public id are
// dropped; the first definition wins.
func New(entries []ModelEntry) *Registry {
	r := &Registry{index: make(map[string]int, len(entries))}
	for _, entry := range entries {
		if _, ok := r.index[entry.ID]; ok {
			continue
		}
		r.index[entry.ID] = len(r.entries)
		r.entries = append(r.entries, entry)
	}
	return r
}

// Lookup returns the entry for a public model id.
func (r *Registry) Lookup(id string) (ModelEntry, bool) {
	idx, ok := r.index[id]
	if !ok {
		return ModelEntry{}, false
	}
	return r.entries[idx], true
}

// List returns all entries in definition order. The returned slice is a copy
// and safe for callers to range over repeatedly.
func (r *Registry) List() []ModelEntry {
	out := make([]ModelEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

const (
	antigravityEndpointBase = "https://cloudcode-pa.googleapis.com"
	codexEndpointBase       = "https://chatgpt.com/backend-api/codex"
)

// Default returns the built-in model registry.
func Default() *Registry {
	return New([]ModelEntry{
		{
			ID:            "claude-sonnet-4.5",
			DisplayName:   "Claude 4.5 Sonnet",
			Provider:      ProviderAntigravity,
			UpstreamModel: "claude-sonnet-4-5",
			EndpointBase:  antigravityEndpointBase,
			ContextLimit:  180000,
			OutputLimit:   64000,
			Created:       1759104000,
		},
		{
			ID:            "claude-sonnet-4.5-thinking",
			DisplayName:   "Claude 4.5 Sonnet (Thinking)",
			Provider:      ProviderAntigravity,
			UpstreamModel: "claude-sonnet-4-5-thinking",
			EndpointBase:  antigravityEndpointBase,
			ContextLimit:  180000,
			OutputLimit:   64000,
			Thinking:      ThinkingConfig{Mode: ThinkingBudget, Budget: 16384},
			Created:       1759104000,
		},
		{
			ID:            "claude-opus-4.5-thinking",
			DisplayName:   "Claude 4.5 Opus (Thinking)",
			Provider:      ProviderAntigravity,
			UpstreamModel: "claude-opus-4-5-thinking",
			EndpointBase:  antigravityEndpointBase,
			ContextLimit:  180000,
			OutputLimit:   64000,
			Thinking:      ThinkingConfig{Mode: ThinkingBudget, Budget: 32768},
			Created:       1761955200,
		},
		{
			ID:            "gemini-3-pro",
			DisplayName:   "Gemini 3 Pro",
			Provider:      ProviderAntigravity,
			UpstreamModel: "gemini-3-pro-high",
			EndpointBase:  antigravityEndpointBase,
			ContextLimit:  1048576,
			OutputLimit:   65536,
			Thinking:      ThinkingConfig{Mode: ThinkingLevel, Level: "high"},
			Created:       1737158400,
		},
		{
			ID:            "gemini-3-flash",
			DisplayName:   "Gemini 3 Flash",
			Provider:      ProviderAntigravity,
			UpstreamModel: "gemini-3-flash",
			EndpointBase:  antigravityEndpointBase,
			ContextLimit:  1048576,
			OutputLimit:   65536,
			Thinking:      ThinkingConfig{Mode: ThinkingLevel, Level: "low"},
			Created:       1765929600,
		},
		{
			ID:            "gemini-2.5-flash",
			DisplayName:   "Gemini 2.5 Flash",
			Provider:      ProviderAntigravity,
			UpstreamModel: "rev19-f1-1p",
			EndpointBase:  antigravityEndpointBase,
			ContextLimit:  1048576,
			OutputLimit:   65536,
			Thinking:      ThinkingConfig{Mode: ThinkingBudget, Budget: 8192},
			Created:       1750118400,
		},
		{
			ID:            "gpt-5",
			DisplayName:   "GPT-5",
			Provider:      ProviderCodex,
			UpstreamModel: "gpt-5",
			EndpointBase:  codexEndpointBase,
			ContextLimit:  272000,
			OutputLimit:   128000,
			Thinking:      ThinkingConfig{Mode: ThinkingLevel, Level: "medium"},
			Created:       1754006400,
		},
		{
			ID:            "gpt-5-codex",
			DisplayName:   "GPT-5 Codex",
			Provider:      ProviderCodex,
			UpstreamModel: "gpt-5-codex",
			EndpointBase:  codexEndpointBase,
			ContextLimit:  272000,
			OutputLimit:   128000,
			Thinking:      ThinkingConfig{Mode: ThinkingLevel, Level: "medium"},
			Created:       1757894400,
		},
	})
}
