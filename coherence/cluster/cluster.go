// Package cluster groups controllers into a hierarchy. Clusters do not own
// their members; they only record membership and order.
package cluster

import (
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/coherence/controller"
	"github.com/sarchlab/cohfabric/sim"
)

// A Cluster is an ordered collection of controllers and nested clusters.
type Cluster struct {
	name        string
	members     []member
	controllers map[controller.Controller]bool
	subclusters map[*Cluster]bool
}

// A member is either a controller or a cluster.
type member struct {
	ctrl    controller.Controller
	cluster *Cluster
}

// New creates an empty cluster.
func New(name string) *Cluster {
	sim.NameMustBeValid(name)

	return &Cluster{
		name:        name,
		controllers: make(map[controller.Controller]bool),
		subclusters: make(map[*Cluster]bool),
	}
}

// Name returns the name of the cluster.
func (c *Cluster) Name() string {
	return c.name
}

// Add appends a controller to the cluster.
func (c *Cluster) Add(ctrl controller.Controller) error {
	if c.controllers[ctrl] {
		return coherence.NewStructuralWiringError(c.name,
			"%s is already a member", ctrl.Name())
	}

	c.controllers[ctrl] = true
	c.members = append(c.members, member{ctrl: ctrl})

	return nil
}

// AddCluster nests a cluster. A cluster cannot contain itself, directly or
// through its subclusters.
func (c *Cluster) AddCluster(sub *Cluster) error {
	if c.subclusters[sub] {
		return coherence.NewStructuralWiringError(c.name,
			"%s is already a member", sub.name)
	}

	if sub == c || sub.contains(c) {
		return coherence.NewStructuralWiringError(c.name,
			"nesting %s would form a cycle", sub.name)
	}

	c.subclusters[sub] = true
	c.members = append(c.members, member{cluster: sub})

	return nil
}

func (c *Cluster) contains(target *Cluster) bool {
	for _, m := range c.members {
		if m.cluster == nil {
			continue
		}

		if m.cluster == target || m.cluster.contains(target) {
			return true
		}
	}

	return false
}

// Controllers returns the direct controller members in insertion order.
func (c *Cluster) Controllers() []controller.Controller {
	var ctrls []controller.Controller

	for _, m := range c.members {
		if m.ctrl != nil {
			ctrls = append(ctrls, m.ctrl)
		}
	}

	return ctrls
}

// Subclusters returns the direct cluster members in insertion order.
func (c *Cluster) Subclusters() []*Cluster {
	var subs []*Cluster

	for _, m := range c.members {
		if m.cluster != nil {
			subs = append(subs, m.cluster)
		}
	}

	return subs
}

// Len returns the number of direct members.
func (c *Cluster) Len() int {
	return len(c.members)
}

// Walk visits the members depth first in insertion order. The depth of the
// direct members is 0.
func (c *Cluster) Walk(fn func(depth int, ctrl controller.Controller, sub *Cluster)) {
	c.walk(0, fn)
}

func (c *Cluster) walk(
	depth int,
	fn func(depth int, ctrl controller.Controller, sub *Cluster),
) {
	for _, m := range c.members {
		fn(depth, m.ctrl, m.cluster)

		if m.cluster != nil {
			m.cluster.walk(depth+1, fn)
		}
	}
}

// AllControllers returns every controller in the cluster and its
// subclusters, in walk order.
func (c *Cluster) AllControllers() []controller.Controller {
	var ctrls []controller.Controller

	c.Walk(func(_ int, ctrl controller.Controller, _ *Cluster) {
		if ctrl != nil {
			ctrls = append(ctrls, ctrl)
		}
	})

	return ctrls
}
