package registry

import (
	"fmt"
	"log/slog"
	"sync"
)

// Pack is the interface conversion packs implement to contribute their rules
// to a registry.
type Pack interface {
	Register(r *Registry)
}

// Registry is the append-only index from target variable name to the
// ordered list of rules that can produce it.
type Registry struct {
	rules map[string][]*Rule
	names []string
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{rules: make(map[string][]*Rule)}
}

// Register validates a rule and appends it to the candidate list for its
// target name, preserving registration order as the search tie-break.
func (r *Registry) Register(rule *Rule) error {
	if rule.Name == "" {
		return fmt.Errorf("conversion rule has no target name")
	}
	if rule.Compute == nil {
		return fmt.Errorf("conversion rule for %q has no compute function", rule.Name)
	}
	if len(rule.Sources) > MaxSourcesPerRule {
		return fmt.Errorf("conversion rule for %q declares %d sources, limit is %d",
			rule.Name, len(rule.Sources), MaxSourcesPerRule)
	}
	if rule.Sig.HasIndependent() && rule.Sig.IndependentLength < 0 {
		return fmt.Errorf("conversion rule for %q has an independent dimension without a length", rule.Name)
	}
	slog.Debug("Registering conversion rule.", "target", rule.Name, "signature", rule.Sig.String())
	if _, exists := r.rules[rule.Name]; !exists {
		r.names = append(r.names, rule.Name)
	}
	r.rules[rule.Name] = append(r.rules[rule.Name], rule)
	return nil
}

// MustRegister registers a rule and panics on validation failure. Packs use
// it for their compiled-in rules, where a failure is a programmer error.
func (r *Registry) MustRegister(rule *Rule) {
	if err := r.Register(rule); err != nil {
		panic(err)
	}
}

// Lookup returns the rules targeting a name, in registration order, or nil.
func (r *Registry) Lookup(name string) []*Rule {
	return r.rules[name]
}

// TargetNames returns all registered target names in first-registration
// order.
func (r *Registry) TargetNames() []string {
	return r.names
}

// Len returns the number of distinct target names.
func (r *Registry) Len() int {
	return len(r.names)
}

// Teardown drops all registered rules and clears the index.
func (r *Registry) Teardown() {
	r.rules = make(map[string][]*Rule)
	r.names = nil
}

// defaultPacks holds packs contributed for the process-wide registry before
// its one-time construction.
var (
	defaultMu    sync.Mutex
	defaultPacks []Pack
	defaultOnce  sync.Once
	defaultReg   *Registry
)

// AddDefaultPack queues a pack for the process-wide default registry. It
// must be called before the first Default call; later additions are
// rejected.
func AddDefaultPack(p Pack) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultReg != nil {
		return fmt.Errorf("default registry already built")
	}
	defaultPacks = append(defaultPacks, p)
	return nil
}

// Default lazily builds and returns the process-wide registry from the packs
// queued via AddDefaultPack. Construction happens at most once; concurrent
// first use is serialized.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		defer defaultMu.Unlock()
		defaultReg = New()
		for _, p := range defaultPacks {
			p.Register(defaultReg)
		}
	})
	return defaultReg
}
