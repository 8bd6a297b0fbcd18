package approval

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Decision is the outcome of a policy lookup.
type Decision int

const (
	Ask Decision = iota
	Allow
	Deny
)

// Policy remembers past approval decisions so the user is not asked twice
// for the same kind of request. Patterns are either a bare tool name
// ("write_file") or "shell:<first-word>" for shell commands.
type Policy struct {
	path string

	mu      sync.RWMutex
	allowed map[string]bool
	denied  map[string]bool
}

type persistedPolicy struct {
	Allowed []string `json:"allowed"`
	Denied  []string `json:"denied"`
}

// NewPolicy loads remembered decisions from path. A missing or unreadable
// file yields an empty policy. An empty path disables persistence.
func NewPolicy(path string) *Policy {
	p := &Policy{
		path:    path,
		allowed: make(map[string]bool),
		denied:  make(map[string]bool),
	}
	p.load()
	return p
}

// PatternFor derives the remember-pattern for a request. Shell commands
// are remembered per leading word, file tools per tool.
func PatternFor(toolName string, args map[string]any) string {
	if toolName == "shell" {
		if cmd, _ := args["command"].(string); cmd != "" {
			if fields := strings.Fields(cmd); len(fields) > 0 {
				return "shell:" + fields[0]
			}
		}
	}
	return toolName
}

// Decide answers from remembered patterns. Denials win over allowals.
func (p *Policy) Decide(toolName string, args map[string]any) Decision {
	pattern := PatternFor(toolName, args)
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.denied[pattern] || p.denied[toolName] {
		return Deny
	}
	if p.allowed[pattern] || p.allowed[toolName] {
		return Allow
	}
	return Ask
}

func (p *Policy) Remember(pattern string, approved bool) {
	p.mu.Lock()
	if approved {
		p.allowed[pattern] = true
		delete(p.denied, pattern)
	} else {
		p.denied[pattern] = true
		delete(p.allowed, pattern)
	}
	p.mu.Unlock()
	p.save()
}

// Clear drops all remembered decisions.
func (p *Policy) Clear() {
	p.mu.Lock()
	p.allowed = make(map[string]bool)
	p.denied = make(map[string]bool)
	p.mu.Unlock()
	p.save()
}

func (p *Policy) load() {
	if p.path == "" {
		return
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return
	}
	var persisted persistedPolicy
	if err := json.Unmarshal(data, &persisted); err != nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pattern := range persisted.Allowed {
		p.allowed[pattern] = true
	}
	for _, pattern := range persisted.Denied {
		p.denied[pattern] = true
	}
}

func (p *Policy) save() {
	if p.path == "" {
		return
	}
	p.mu.RLock()
	persisted := persistedPolicy{
		Allowed: sortedKeys(p.allowed),
		Denied:  sortedKeys(p.denied),
	}
	p.mu.RUnlock()

	data, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return
	}
	_ = os.WriteFile(p.path, data, 0600)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Stable file content keeps diffs readable.
	sort.Strings(keys)
	return keys
}
