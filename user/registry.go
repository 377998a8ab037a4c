package user

import "sync"

// Registry is the process-wide user list: a set of live users protected by
// one mutex, owned by whichever client object constructs it. It is a port
// of the registry discipline described for SqrlClient's user list — find
// scans under the lock and calls hold on a match; hold re-validates
// membership under the lock before incrementing, so a find/hold pair
// cannot race a concurrent release that frees the user.
type Registry struct {
	mu    sync.Mutex
	users []*User
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register inserts u at the head of the registry. u must already have
// refCount == 1, as NewUser leaves it.
func (r *Registry) Register(u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append([]*User{u}, r.users...)
}

// Find scans the registry for a user with the given unique id and, on a
// match, calls hold on it before returning. It returns nil if no such user
// is registered.
func (r *Registry) Find(uniqueID string) *User {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.uniqueID == uniqueID {
			r.hold(u)
			return u
		}
	}
	return nil
}

// Hold increments u's reference count after re-validating that u is still
// registered, preventing a use-after-free race against a concurrent
// Release that has already unregistered and destroyed u.
func (r *Registry) Hold(u *User) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.users {
		if v == u {
			r.hold(u)
			return true
		}
	}
	return false
}

func (r *Registry) hold(u *User) {
	u.refMu.Lock()
	u.refCount++
	u.refMu.Unlock()
}

// Release decrements u's reference count. If u is not registered, it is
// destroyed immediately. Otherwise, decrementing to zero unregisters and
// destroys it under the registry lock; a nonzero result leaves u in place.
func (r *Registry) Release(u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, v := range r.users {
		if v == u {
			idx = i
			break
		}
	}
	if idx == -1 {
		u.Destroy()
		return
	}

	u.refMu.Lock()
	u.refCount--
	zero := u.refCount == 0
	u.refMu.Unlock()

	if zero {
		r.users = append(r.users[:idx], r.users[idx+1:]...)
		u.Destroy()
	}
}
