package host

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/dshills/stormhost/internal/text"
)

// PhantomLayout positions phantom content relative to its region.
type PhantomLayout int

const (
	// LayoutInline places content at the region end, on the same line.
	LayoutInline PhantomLayout = iota
	// LayoutBelow places content on the line under the region.
	LayoutBelow
	// LayoutBlock places content between lines, full width.
	LayoutBlock
)

// String returns the layout name used in serialized phantom data.
func (l PhantomLayout) String() string {
	switch l {
	case LayoutInline:
		return "inline"
	case LayoutBelow:
		return "below"
	case LayoutBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Phantom is decoration anchored to a buffer region. Content is opaque
// to the host; frontends decide how to render it. OnNavigate fires when
// the user activates a link inside the content.
type Phantom struct {
	Region     text.Region
	Content    string
	Layout     PhantomLayout
	OnNavigate func(string)
}

// Key returns the phantom's identity: an FNV-1a hash over region,
// content and layout. Two phantoms with the same key are the same
// phantom for reconciliation; OnNavigate does not participate.
func (p Phantom) Key() int64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(p.Region.A))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(p.Region.B))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(p.Layout))
	h.Write(buf[:])
	h.Write([]byte(p.Content))
	return int64(h.Sum64())
}

// AddPhantom attaches a phantom to the view and returns its id. The
// frontend is notified of the attachment.
func (v *View) AddPhantom(p Phantom) (int64, error) {
	if !v.IsValid() {
		return 0, ErrStaleView
	}
	v.nextPhantom++
	id := v.nextPhantom
	v.phantoms[id] = p
	v.host.frontend.PhantomAttached(v, id, p)
	return id, nil
}

// ErasePhantom detaches a phantom by id. Erasing an unknown id is a
// no-op.
func (v *View) ErasePhantom(id int64) error {
	if !v.IsValid() {
		return ErrStaleView
	}
	if _, ok := v.phantoms[id]; !ok {
		return nil
	}
	delete(v.phantoms, id)
	v.host.frontend.PhantomDetached(v, id)
	return nil
}

// QueryPhantom returns the region a phantom is anchored to. The boolean
// is false for an unknown id.
func (v *View) QueryPhantom(id int64) (text.Region, bool) {
	if !v.IsValid() {
		return text.Region{}, false
	}
	p, ok := v.phantoms[id]
	if !ok {
		return text.Region{}, false
	}
	return p.Region, true
}

// NavigatePhantom fires a phantom's navigation callback with href, as a
// frontend does when the user activates a link in its content.
func (v *View) NavigatePhantom(id int64, href string) {
	if !v.IsValid() {
		return
	}
	p, ok := v.phantoms[id]
	if !ok || p.OnNavigate == nil {
		return
	}
	p.OnNavigate(href)
}

// phantomRecord tracks one attached phantom inside a set.
type phantomRecord struct {
	key int64
	id  int64
	p   Phantom
}

// PhantomSet reconciles a group of phantoms against a view. Update
// diffs the desired phantoms against the attached ones by key, so
// repeated updates with overlapping content only touch what changed.
type PhantomSet struct {
	view    *View
	closed  bool
	records []phantomRecord
}

// NewPhantomSet creates an empty set bound to v.
func NewPhantomSet(v *View) *PhantomSet {
	return &PhantomSet{view: v}
}

// Update makes the attached phantoms match phantoms. Entries whose key
// is already attached stay untouched, vanished keys detach, new keys
// attach in argument order. Duplicate keys collapse to the first
// occurrence.
func (ps *PhantomSet) Update(phantoms []Phantom) error {
	if ps.closed {
		return ErrPhantomSetClosed
	}
	if !ps.view.IsValid() {
		return ErrStaleView
	}

	existing := make(map[int64]phantomRecord, len(ps.records))
	for _, rec := range ps.records {
		existing[rec.key] = rec
	}

	next := make([]phantomRecord, 0, len(phantoms))
	seen := make(map[int64]struct{}, len(phantoms))
	for _, p := range phantoms {
		key := p.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if rec, ok := existing[key]; ok {
			next = append(next, rec)
			continue
		}
		id, err := ps.view.AddPhantom(p)
		if err != nil {
			return err
		}
		next = append(next, phantomRecord{key: key, id: id, p: p})
	}

	for _, rec := range ps.records {
		if _, keep := seen[rec.key]; !keep {
			_ = ps.view.ErasePhantom(rec.id)
		}
	}
	ps.records = next
	return nil
}

// Phantoms returns the attached phantoms in their stable attach order.
func (ps *PhantomSet) Phantoms() []Phantom {
	out := make([]Phantom, len(ps.records))
	for i, rec := range ps.records {
		out[i] = rec.p
	}
	return out
}

// Close detaches every phantom in the set. Closing twice is a no-op, so
// deferred cleanup stays safe alongside explicit teardown.
func (ps *PhantomSet) Close() {
	if ps.closed {
		return
	}
	ps.closed = true
	if ps.view.IsValid() {
		for _, rec := range ps.records {
			_ = ps.view.ErasePhantom(rec.id)
		}
	}
	ps.records = nil
}
