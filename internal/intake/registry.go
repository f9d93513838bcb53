package intake

import (
	"sync"
	"time"

	"solarintake/internal/utils"
)

const DefaultDraftMaxAge = 24 * time.Hour

type draft struct {
	form     *Form
	lastSeen time.Time
}

// Registry keeps drafts in memory. Drafts idle longer than maxAge are
// dropped the next time the registry is touched.
type Registry struct {
	deps   Deps
	maxAge time.Duration
	now    func() time.Time

	mu     sync.Mutex
	drafts map[string]*draft
}

func NewRegistry(deps Deps, maxAge time.Duration) *Registry {
	if maxAge <= 0 {
		maxAge = DefaultDraftMaxAge
	}

	return &Registry{
		deps:   deps,
		maxAge: maxAge,
		now:    time.Now,
		drafts: make(map[string]*draft),
	}
}

func (r *Registry) Create() *Form {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	form := NewForm(utils.NanoID(), r.deps)
	r.drafts[form.ID()] = &draft{form: form, lastSeen: now}

	return form
}

func (r *Registry) Get(id string) (*Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	d, ok := r.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	d.lastSeen = now

	return d.form, nil
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.drafts, id)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.drafts)
}

func (r *Registry) sweepLocked(now time.Time) {
	for id, d := range r.drafts {
		// a draft mid submission is kept until its transport returns
		if now.Sub(d.lastSeen) > r.maxAge && d.form.Status() != StatusSubmitting {
			delete(r.drafts, id)
		}
	}
}
