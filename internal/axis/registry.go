// Package axis decides which shared Y scale each plotted signal renders on.
//
// Signals are grouped by magnitude (mean of absolute values). Each group
// keeps the magnitude of the first signal assigned to it as its reference
// for as long as it has members. A candidate joins the first group, in
// creation order, whose reference is within Threshold decades of it. The
// primary group always exists; a secondary group is created on demand and
// there is never a third.
package axis

import (
	"errors"
	"fmt"
	"math"
)

// GroupID identifies a scale group.
type GroupID int

const (
	// NoGroup marks a signal that is not placed on any scale group.
	NoGroup GroupID = -1
	// Primary is the left-hand scale.
	Primary GroupID = 0
	// Secondary is the right-hand scale.
	Secondary GroupID = 1
)

func (g GroupID) String() string {
	switch g {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	case NoGroup:
		return "none"
	}
	return fmt.Sprintf("group_%d", int(g))
}

// DefaultThreshold is the maximum magnitude difference, in decades, for
// two signals to share a scale.
const DefaultThreshold = 1.5

var (
	// ErrMaxScalesReached is returned when a signal fits neither scale and
	// both already exist.
	ErrMaxScalesReached = errors.New("max scales reached")
	// ErrAlreadyAssigned is returned when assigning a signal that is
	// already a member of a group.
	ErrAlreadyAssigned = errors.New("signal already assigned")
	// ErrNotAssigned is returned when moving a signal that has no group.
	ErrNotAssigned = errors.New("signal not assigned")
	// ErrInvalidGroup is returned for moves to anything but Primary or
	// Secondary.
	ErrInvalidGroup = errors.New("invalid scale group")
	// ErrInvalidMagnitude is returned for NaN, infinite or negative
	// magnitudes.
	ErrInvalidMagnitude = errors.New("invalid magnitude")
)

// Options configures a Registry.
type Options struct {
	// Threshold is the compatibility limit in decades. Zero means
	// DefaultThreshold.
	Threshold float64

	// ZeroReferenceDelta, when UseZeroReferenceDelta is set, lets a group
	// whose reference magnitude is exactly zero accept candidates with
	// magnitude <= ZeroReferenceDelta. Otherwise such groups never match.
	ZeroReferenceDelta    float64
	UseZeroReferenceDelta bool
}

type group struct {
	id        GroupID
	reference float64
	seeded    bool
	members   []string
}

func (g *group) indexOf(id string) int {
	for i, m := range g.members {
		if m == id {
			return i
		}
	}
	return -1
}

// Registry owns scale-group membership. It is not safe for concurrent use.
type Registry struct {
	opts     Options
	groups   []*group // creation order
	memberOf map[string]GroupID
}

// NewRegistry returns a registry holding an empty primary group.
func NewRegistry(opts Options) *Registry {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	r := &Registry{opts: opts}
	r.Reset()
	return r
}

// Reset drops every member and the secondary group.
func (r *Registry) Reset() {
	r.groups = []*group{{id: Primary}}
	r.memberOf = make(map[string]GroupID)
}

// Threshold returns the compatibility limit in decades.
func (r *Registry) Threshold() float64 {
	return r.opts.Threshold
}

// FindGroup returns the group a signal of the given magnitude belongs to.
// A zero magnitude always routes to the primary group. Otherwise groups
// are tried in creation order: an empty group matches immediately, a group
// with a zero reference is skipped, and a seeded group matches when the
// log10 distance to its reference is at most Threshold. It reports false
// when nothing matches.
func (r *Registry) FindGroup(magnitude float64) (GroupID, bool) {
	if magnitude == 0 {
		if g := r.group(Primary); g != nil {
			return Primary, true
		}
		return NoGroup, false
	}

	for _, g := range r.groups {
		if !g.seeded {
			tracef("group %s empty, selected for magnitude %.6g", g.id, magnitude)
			return g.id, true
		}
		if g.reference == 0 {
			if r.opts.UseZeroReferenceDelta && math.Abs(magnitude) <= r.opts.ZeroReferenceDelta {
				tracef("group %s zero reference within delta %.6g", g.id, r.opts.ZeroReferenceDelta)
				return g.id, true
			}
			tracef("group %s has zero reference, skipped", g.id)
			continue
		}
		diff := math.Abs(math.Log10(magnitude) - math.Log10(g.reference))
		tracef("group %s reference %.6g diff %.4f decades (threshold %.4f)", g.id, g.reference, diff, r.opts.Threshold)
		if diff <= r.opts.Threshold {
			return g.id, true
		}
	}
	return NoGroup, false
}

// Assign places id in the group chosen by FindGroup, creating the
// secondary group when nothing fits. It returns ErrMaxScalesReached,
// without changing any state, when nothing fits and the secondary group
// already exists.
func (r *Registry) Assign(id string, magnitude float64) (GroupID, error) {
	if err := checkMagnitude(magnitude); err != nil {
		return NoGroup, err
	}
	if g, ok := r.memberOf[id]; ok {
		return g, fmt.Errorf("%w: %s in %s", ErrAlreadyAssigned, id, g)
	}

	gid, ok := r.FindGroup(magnitude)
	if !ok {
		if r.HasSecondary() {
			opsf("no scale fits %s (magnitude %.6g): %v", id, magnitude, ErrMaxScalesReached)
			return NoGroup, fmt.Errorf("%w: %s", ErrMaxScalesReached, id)
		}
		r.groups = append(r.groups, &group{id: Secondary})
		gid = Secondary
		diagf("created secondary group for %s (magnitude %.6g)", id, magnitude)
	}

	r.add(id, gid, magnitude)
	diagf("assigned %s to %s (magnitude %.6g)", id, gid, magnitude)
	return gid, nil
}

// Remove drops id from its group. A group left empty loses its reference
// so the next candidate of any magnitude can reseed it. It returns the
// group id was in.
func (r *Registry) Remove(id string) (GroupID, bool) {
	gid, ok := r.memberOf[id]
	if !ok {
		return NoGroup, false
	}
	g := r.group(gid)
	if i := g.indexOf(id); i >= 0 {
		g.members = append(g.members[:i], g.members[i+1:]...)
	}
	delete(r.memberOf, id)
	if len(g.members) == 0 {
		g.seeded = false
		g.reference = 0
		diagf("group %s empty after removing %s, reference cleared", gid, id)
	}
	r.checkInvariants()
	return gid, true
}

// Move reassigns id to the primary or secondary group on user request,
// creating the secondary group if needed. An empty destination is seeded
// with magnitude. Moving to the current group is a no-op.
func (r *Registry) Move(id string, to GroupID, magnitude float64) error {
	if to != Primary && to != Secondary {
		return fmt.Errorf("%w: %s", ErrInvalidGroup, to)
	}
	from, ok := r.memberOf[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAssigned, id)
	}
	if from == to {
		return nil
	}
	if from != Primary && from != Secondary {
		return fmt.Errorf("%w: %s is in %s", ErrInvalidGroup, id, from)
	}
	if err := checkMagnitude(magnitude); err != nil {
		return err
	}

	if r.group(to) == nil {
		r.groups = append(r.groups, &group{id: to})
	}
	r.Remove(id)
	r.add(id, to, magnitude)
	diagf("moved %s from %s to %s", id, from, to)
	return nil
}

// GroupOf returns the group id belongs to.
func (r *Registry) GroupOf(id string) (GroupID, bool) {
	g, ok := r.memberOf[id]
	return g, ok
}

// Members returns the members of g in assignment order.
func (r *Registry) Members(g GroupID) []string {
	grp := r.group(g)
	if grp == nil {
		return nil
	}
	return append([]string(nil), grp.members...)
}

// Reference returns the reference magnitude of g; false when g is empty
// or does not exist.
func (r *Registry) Reference(g GroupID) (float64, bool) {
	grp := r.group(g)
	if grp == nil || !grp.seeded {
		return 0, false
	}
	return grp.reference, true
}

// HasSecondary reports whether the secondary group has been created.
func (r *Registry) HasSecondary() bool {
	return r.group(Secondary) != nil
}

// Groups returns the existing group ids in creation order.
func (r *Registry) Groups() []GroupID {
	ids := make([]GroupID, len(r.groups))
	for i, g := range r.groups {
		ids[i] = g.id
	}
	return ids
}

// Len returns the number of assigned signals.
func (r *Registry) Len() int {
	return len(r.memberOf)
}

func (r *Registry) add(id string, gid GroupID, magnitude float64) {
	g := r.group(gid)
	g.members = append(g.members, id)
	if !g.seeded {
		g.reference = magnitude
		g.seeded = true
	}
	r.memberOf[id] = gid
	r.checkInvariants()
}

func (r *Registry) group(id GroupID) *group {
	for _, g := range r.groups {
		if g.id == id {
			return g
		}
	}
	return nil
}

func (r *Registry) checkInvariants() {
	for _, g := range r.groups {
		if len(g.members) > 0 && !g.seeded {
			panic(fmt.Sprintf("axis: group %s has %d members but no reference magnitude", g.id, len(g.members)))
		}
		if len(g.members) == 0 && g.seeded {
			panic(fmt.Sprintf("axis: group %s has a reference magnitude but no members", g.id))
		}
	}
}

func checkMagnitude(m float64) error {
	if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidMagnitude, m)
	}
	return nil
}
