// Package users holds buyer profiles. Backed by an in-memory registry
// seeded with demo profiles; persistent storage can replace it behind the
// same surface.
package users

import (
	"fmt"
	"sort"
	"sync"

	"github.com/flipscout/flipscout/internal/model"
)

// Registry stores user profiles by ID.
type Registry struct {
	mu    sync.RWMutex
	users map[string]model.User
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{users: make(map[string]model.User)}
}

// NewDemoRegistry creates a registry seeded with the demo profiles.
func NewDemoRegistry() *Registry {
	r := NewRegistry()
	for _, u := range demoUsers() {
		r.Put(u)
	}
	return r
}

// Put adds or replaces a profile.
func (r *Registry) Put(u model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

// Get returns the profile for the ID.
func (r *Registry) Get(id string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("unknown user %q", id)
	}
	return u, nil
}

// IDs returns all profile IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func demoUsers() []model.User {
	return []model.User{
		{
			ID:     "rose",
			Name:   "Rose",
			Gender: model.GenderWomen,
			Sizes: model.NewUserSizes(
				[]string{"S", "M"},
				[]string{"26", "27", "28"},
				[]string{"S", "M"},
				[]string{"S", "M"},
			),
			Preferences: model.NewUserPreferences(
				[]string{"Stylenanda", "Ader Error", "House of CB", "Oh Polly", "Meshki", "Cult Gaia"},
				200, 20, nil,
			),
		},
		{
			ID:     "thai",
			Name:   "Thai",
			Gender: model.GenderMen,
			Sizes: model.NewUserSizes(
				[]string{"M", "L"},
				[]string{"33", "34"},
				[]string{"M", "L"},
				[]string{"M", "L"},
			),
			Preferences: model.NewUserPreferences(
				[]string{"Lululemon", "Norse Projects", "APC", "Theory"},
				250, 20, nil,
			),
		},
	}
}
