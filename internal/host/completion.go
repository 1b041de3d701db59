package host

import (
	"sync"

	"github.com/dshills/stormhost/internal/text"
)

// CompletionFormat says how a completion's text is applied.
type CompletionFormat int

const (
	// FormatText inserts the completion verbatim.
	FormatText CompletionFormat = iota
	// FormatSnippet expands the completion as a snippet.
	FormatSnippet
	// FormatCommand runs the completion as a command name.
	FormatCommand
)

// CompletionKind classifies a completion for presentation.
type CompletionKind int

const (
	KindAmbiguous CompletionKind = iota
	KindKeyword
	KindType
	KindFunction
	KindNamespace
	KindNavigation
	KindMarkup
	KindVariable
	KindSnippet
)

// String returns the kind name shown next to a completion.
func (k CompletionKind) String() string {
	switch k {
	case KindKeyword:
		return "keyword"
	case KindType:
		return "type"
	case KindFunction:
		return "function"
	case KindNamespace:
		return "namespace"
	case KindNavigation:
		return "navigation"
	case KindMarkup:
		return "markup"
	case KindVariable:
		return "variable"
	case KindSnippet:
		return "snippet"
	default:
		return "ambiguous"
	}
}

// CompletionFlags adjust how the merged completion results behave.
type CompletionFlags int

const (
	// InhibitWordCompletions drops word-based fallback completions.
	InhibitWordCompletions CompletionFlags = 1 << iota
	// InhibitExplicitCompletions drops user-defined completion files.
	InhibitExplicitCompletions
	// DynamicCompletions re-queries providers on every keystroke.
	DynamicCompletions
	// InhibitReorder preserves provider ordering over match quality.
	InhibitReorder
)

// CompletionItem is one completion a provider offers.
type CompletionItem struct {
	Trigger    string
	Annotation string
	Completion string
	Format     CompletionFormat
	Kind       CompletionKind
	Details    string
}

// CompletionList carries completions that may arrive after the query
// returns. A provider hands back an unresolved list and calls
// SetCompletions once its results are ready; results already at hand go
// through ResolvedCompletions instead.
type CompletionList struct {
	mu       sync.Mutex
	resolved bool
	items    []CompletionItem
	flags    CompletionFlags
	deliver  func([]CompletionItem, CompletionFlags)
}

// NewCompletionList returns an unresolved list.
func NewCompletionList() *CompletionList {
	return &CompletionList{}
}

// ResolvedCompletions returns a list that is already resolved.
func ResolvedCompletions(items []CompletionItem, flags CompletionFlags) *CompletionList {
	return &CompletionList{resolved: true, items: items, flags: flags}
}

// SetCompletions resolves the list. It may be called from any goroutine
// but at most once; a second call is a usage violation and panics.
func (cl *CompletionList) SetCompletions(items []CompletionItem, flags CompletionFlags) {
	cl.mu.Lock()
	if cl.resolved {
		cl.mu.Unlock()
		usagePanic("CompletionList.SetCompletions", "completions already set")
	}
	cl.resolved = true
	cl.items = items
	cl.flags = flags
	deliver := cl.deliver
	cl.deliver = nil
	cl.mu.Unlock()
	if deliver != nil {
		deliver(items, flags)
	}
}

// attach arranges fn to run with the list's results, immediately when
// already resolved.
func (cl *CompletionList) attach(fn func([]CompletionItem, CompletionFlags)) {
	cl.mu.Lock()
	if cl.resolved {
		items, flags := cl.items, cl.flags
		cl.mu.Unlock()
		fn(items, flags)
		return
	}
	cl.deliver = fn
	cl.mu.Unlock()
}

// CompletionProvider contributes completions for a position. A nil
// result means no contribution for this query.
type CompletionProvider func(v *View, prefix string, locations []text.Point) *CompletionList

type providerEntry struct {
	id int64
	fn CompletionProvider
}

// completionProviders is the host's provider table.
type completionProviders struct {
	mu      sync.Mutex
	nextID  int64
	entries []providerEntry
}

func (c *completionProviders) register(fn CompletionProvider) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.entries = append(c.entries, providerEntry{id: c.nextID, fn: fn})
	return c.nextID
}

func (c *completionProviders) unregister(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, entry := range c.entries {
		if entry.id == id {
			c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
			return
		}
	}
}

func (c *completionProviders) snapshot() []CompletionProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CompletionProvider, len(c.entries))
	for i, entry := range c.entries {
		out[i] = entry.fn
	}
	return out
}

// RegisterCompletionProvider adds a provider and returns its id for
// later removal.
func (h *Host) RegisterCompletionProvider(fn CompletionProvider) int64 {
	return h.completions.register(fn)
}

// UnregisterCompletionProvider removes a provider by id.
func (h *Host) UnregisterCompletionProvider(id int64) {
	h.completions.unregister(id)
}

// completionGather joins the lists of all providers for one query.
type completionGather struct {
	mu      sync.Mutex
	pending int
	items   []CompletionItem
	flags   CompletionFlags
	done    func([]CompletionItem, CompletionFlags)
}

func (g *completionGather) expect(n int) {
	g.mu.Lock()
	g.pending += n
	g.mu.Unlock()
}

func (g *completionGather) add(items []CompletionItem, flags CompletionFlags) {
	g.mu.Lock()
	g.items = append(g.items, items...)
	g.flags |= flags
	g.pending--
	finished := g.pending == 0
	items, flags = g.items, g.flags
	g.mu.Unlock()
	if finished {
		g.done(items, flags)
	}
}

// QueryCompletions asks every provider for completions at the given
// locations and delivers the merged results to onComplete on the
// dispatch loop, once every provider's list has resolved. Flags from
// all lists combine. With no providers registered, onComplete receives
// an empty result.
func (h *Host) QueryCompletions(v *View, prefix string, locations []text.Point, onComplete func([]CompletionItem, CompletionFlags)) error {
	if !v.IsValid() {
		return ErrStaleView
	}
	providers := h.completions.snapshot()

	gather := &completionGather{
		done: func(items []CompletionItem, flags CompletionFlags) {
			h.loop.Post(func() { onComplete(items, flags) })
		},
	}

	lists := make([]*CompletionList, 0, len(providers))
	for _, provider := range providers {
		if list := provider(v, prefix, locations); list != nil {
			lists = append(lists, list)
		}
	}
	if len(lists) == 0 {
		h.loop.Post(func() { onComplete(nil, 0) })
		return nil
	}
	gather.expect(len(lists))
	for _, list := range lists {
		list.attach(gather.add)
	}
	return nil
}
