package host

import "github.com/google/uuid"

// Edit is the token for one open edit session on a view. Buffer mutations
// only succeed while the token is open and presented back to the same
// view, which keeps every mutation inside an explicit atomic scope.
type Edit struct {
	token  string
	viewID int64
	open   bool
}

// Token returns the session identifier. Tokens are unique per session so
// a logged token can be traced to one begin/end pair.
func (e *Edit) Token() string {
	return e.token
}

// Open reports whether the session still accepts mutations.
func (e *Edit) Open() bool {
	return e != nil && e.open
}

// BeginEdit opens an edit session. Only one session may be open per view;
// beginning a second one is a sequencing bug and panics with a
// UsageError. Scripts use the wrapped form on the scripting surface,
// which pairs begin and end automatically.
func (v *View) BeginEdit() (*Edit, error) {
	if !v.IsValid() {
		return nil, ErrStaleView
	}
	if v.edit != nil {
		usagePanic("View.BeginEdit", "edit session already open for this view")
	}
	e := &Edit{
		token:  uuid.NewString(),
		viewID: v.id,
		open:   true,
	}
	v.edit = e
	return e, nil
}

// EndEdit closes an edit session. Ending a session that was never begun,
// ending one twice, or presenting another view's token is a sequencing
// bug and panics with a UsageError. Closing the session of a view that
// has since been closed is allowed so cleanup paths stay safe.
func (v *View) EndEdit(e *Edit) {
	if e == nil {
		usagePanic("View.EndEdit", "nil edit token")
	}
	if !e.open {
		usagePanic("View.EndEdit", "edit session already ended")
	}
	if e.viewID != v.id {
		usagePanic("View.EndEdit", "edit token belongs to a different view")
	}
	if v.valid && v.edit != e {
		usagePanic("View.EndEdit", "edit token belongs to a different session")
	}
	e.open = false
	if !v.valid {
		// The view closed mid-session; the token just closes quietly.
		return
	}
	v.edit = nil
	if v.pendingModify {
		v.pendingModify = false
		v.notifyModified()
	}
}

// checkEdit validates a mutation's token against the view's open session.
func (v *View) checkEdit(e *Edit) error {
	if e == nil || !e.open || v.edit != e || e.viewID != v.id {
		return ErrNotEditing
	}
	return nil
}
