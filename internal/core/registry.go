package core

import (
	"fmt"
	"slices"
	"strings"
)

// User is a channel member. Two users are the same member only when both the
// name and the connection match.
type User struct {
	Name string
	Conn Conn
}

type memberKey struct {
	name   string
	connID string
}

func (u User) key() memberKey {
	var id string
	if u.Conn != nil {
		id = u.Conn.ID()
	}
	return memberKey{name: u.Name, connID: id}
}

// Same reports whether u and other identify the same member.
func (u User) Same(other User) bool {
	return u.key() == other.key()
}

// Channel is a named broadcast group.
type Channel struct {
	Name    string
	members map[memberKey]User
}

func newChannel(name string) *Channel {
	return &Channel{
		Name:    name,
		members: make(map[memberKey]User),
	}
}

// Len returns the number of members.
func (c *Channel) Len() int {
	return len(c.members)
}

// Members returns a snapshot of the member set ordered by name, then connection.
func (c *Channel) Members() []User {
	users := make([]User, 0, len(c.members))
	for _, u := range c.members {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b User) int {
		if n := strings.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		ak, bk := a.key(), b.key()
		return strings.Compare(ak.connID, bk.connID)
	})
	return users
}

// MemberNames returns the member names in Members order.
func (c *Channel) MemberNames() []string {
	members := c.Members()
	names := make([]string, len(members))
	for i, u := range members {
		names[i] = u.Name
	}
	return names
}

// Registry maps channel names to channels. It is not safe for concurrent use;
// the Hub serializes every access.
type Registry struct {
	channels    map[string]*Channel
	maxChannels int
	maxMembers  int
}

// NewRegistry builds an empty registry. A zero limit means unlimited.
func NewRegistry(maxChannels, maxMembers int) *Registry {
	return &Registry{
		channels:    make(map[string]*Channel),
		maxChannels: maxChannels,
		maxMembers:  maxMembers,
	}
}

// Find returns the channel with the exact given name, or nil.
func (r *Registry) Find(name string) *Channel {
	return r.channels[name]
}

// GetOrCreate returns the named channel, creating an empty one on first
// reference. created reports whether the channel is new.
func (r *Registry) GetOrCreate(name string) (ch *Channel, created bool, err error) {
	if ch, ok := r.channels[name]; ok {
		return ch, false, nil
	}
	if r.maxChannels > 0 && len(r.channels) >= r.maxChannels {
		return nil, false, fmt.Errorf("create channel %q: %w", name, ErrResourceExhausted)
	}
	ch = newChannel(name)
	r.channels[name] = ch
	return ch, true, nil
}

// drop forgets a channel. Only used to undo a creation that could not be persisted.
func (r *Registry) drop(name string) {
	delete(r.channels, name)
}

// AddMember inserts u into ch.
func (r *Registry) AddMember(ch *Channel, u User) error {
	k := u.key()
	if _, ok := ch.members[k]; ok {
		return fmt.Errorf("join %q as %q: %w", ch.Name, u.Name, ErrAlreadyMember)
	}
	if r.maxMembers > 0 && len(ch.members) >= r.maxMembers {
		return fmt.Errorf("join %q as %q: %w", ch.Name, u.Name, ErrResourceExhausted)
	}
	ch.members[k] = u
	return nil
}

// RemoveMember deletes u from ch and returns the removed entry.
func (r *Registry) RemoveMember(ch *Channel, u User) (User, error) {
	k := u.key()
	removed, ok := ch.members[k]
	if !ok {
		return User{}, fmt.Errorf("leave %q as %q: %w", ch.Name, u.Name, ErrNotMember)
	}
	delete(ch.members, k)
	return removed, nil
}

// Contains reports whether u is a member of ch.
func (r *Registry) Contains(ch *Channel, u User) bool {
	_, ok := ch.members[u.key()]
	return ok
}

// Names returns all channel names in lexicographic order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of channels.
func (r *Registry) Len() int {
	return len(r.channels)
}

// heldNames returns the distinct user names connID is a member under.
func (r *Registry) heldNames(connID string) []string {
	var names []string
	for _, ch := range r.channels {
		for k := range ch.members {
			if k.connID == connID {
				names = append(names, k.name)
			}
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// removeConn drops every membership held by connID and returns the affected
// channel names.
func (r *Registry) removeConn(connID string) []string {
	var affected []string
	for name, ch := range r.channels {
		for k := range ch.members {
			if k.connID == connID {
				delete(ch.members, k)
				affected = append(affected, name)
			}
		}
	}
	slices.Sort(affected)
	return slices.Compact(affected)
}
