// Package views manages the shell's open tabs: an ordered list of keyed
// views plus the index of the active one. The first view is the home view;
// it is pinned and can never be closed, so the registry is never empty and
// index 0 is always a valid fallback.
package views

import (
	"sync"

	"go.uber.org/zap"

	"wolfquant/internal/logger"
)

// View is one open tab.
type View struct {
	// Key identifies the view; opening an existing key activates it
	// instead of adding a tab.
	Key       string
	Title     string
	Component string
	Props     map[string]interface{}
	Closable  bool
}

// Registry owns the view list and active index.
type Registry struct {
	mu     sync.Mutex
	views  []View
	active int
	log    *zap.SugaredLogger
}

// NewRegistry creates a registry containing only the home view, active.
// The home view is forced non-closable regardless of what the caller set.
func NewRegistry(home View) *Registry {
	home.Closable = false
	home.Props = cloneProps(home.Props)
	return &Registry{
		views:  []View{home},
		active: 0,
		log:    logger.Get(),
	}
}

// Open adds a view and activates it. If a view with the same key is
// already present, no tab is added: that view is activated and the given
// props are merged into it key by key, later values winning.
func (r *Registry) Open(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.views {
		if r.views[i].Key != v.Key {
			continue
		}
		if r.views[i].Props == nil {
			r.views[i].Props = make(map[string]interface{}, len(v.Props))
		}
		for k, val := range v.Props {
			r.views[i].Props[k] = val
		}
		r.active = i
		return
	}

	v.Props = cloneProps(v.Props)
	r.views = append(r.views, v)
	r.active = len(r.views) - 1
}

// Close removes the view at index. Non-closable views and out-of-range
// indexes are no-ops returning false. Closing the active view activates
// the home view; closing a view before the active one shifts the active
// index down so the same view stays active.
func (r *Registry) Close(index int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.closeLocked(index)
}

// CloseKey closes the view with the given key, if present and closable.
func (r *Registry) CloseKey(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.views {
		if r.views[i].Key == key {
			return r.closeLocked(i)
		}
	}
	return false
}

func (r *Registry) closeLocked(index int) bool {
	if index < 0 || index >= len(r.views) {
		return false
	}
	if !r.views[index].Closable {
		return false
	}

	r.views = append(r.views[:index], r.views[index+1:]...)
	switch {
	case r.active == index:
		r.active = 0
	case r.active > index:
		r.active--
	}
	return true
}

// SwitchTo activates the view at index. Out-of-range indexes are no-ops
// returning false.
func (r *Registry) SwitchTo(index int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.views) {
		return false
	}
	r.active = index
	return true
}

// Active returns the active view and its index.
func (r *Registry) Active() (View, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := r.views[r.active]
	v.Props = cloneProps(v.Props)
	return v, r.active
}

// Views returns a copy of the open views in order.
func (r *Registry) Views() []View {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]View, len(r.views))
	for i, v := range r.views {
		v.Props = cloneProps(v.Props)
		out[i] = v
	}
	return out
}

// Len returns the number of open views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Reset closes everything but the home view and activates it.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.views = r.views[:1]
	r.active = 0
}

func cloneProps(props map[string]interface{}) map[string]interface{} {
	if props == nil {
		return nil
	}
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
