package authz

import "sync"

// RoleResolver looks up a user's role, grounded on the original auth
// service's get_user_role: on any lookup failure (unknown user), the safe
// default is RoleViewer rather than denying outright.
type RoleResolver interface {
	RoleFor(userID string) Role
}

// StaticRoleResolver is an in-memory roster keyed by user id, suitable for a
// single-site deployment where staff are provisioned by an admin rather
// than self-registering. Unknown users resolve to RoleViewer.
type StaticRoleResolver struct {
	mu     sync.RWMutex
	roster map[string]Role
}

// NewStaticRoleResolver builds a resolver from a fixed user_id -> role map.
func NewStaticRoleResolver(roster map[string]Role) *StaticRoleResolver {
	r := &StaticRoleResolver{roster: make(map[string]Role, len(roster))}
	for id, role := range roster {
		r.roster[id] = role
	}
	return r
}

// RoleFor returns the configured role, or RoleViewer if the user is unknown.
func (r *StaticRoleResolver) RoleFor(userID string) Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roster[userID]
	if !ok {
		return RoleViewer
	}
	return role
}

// SetRole adds or updates a user's role in the roster. No chat command
// calls it.
func (r *StaticRoleResolver) SetRole(userID string, role Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roster[userID] = role
}
