package topology

import (
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/coherence/controller"
)

// A Domain owns every controller of one coherence domain. Controllers are
// kept in typed collections and are also indexed by version.
type Domain struct {
	CoreL1s     []*controller.L1Controller
	AccelL1s    []*controller.L1Controller
	L2s         []*controller.L2Controller
	Directories []*controller.DirectoryController
	DMAs        []*controller.DMAController
	IO          *controller.IOController

	byVersion []controller.Controller
}

func (d *Domain) add(c controller.Controller) error {
	if c.Version() != len(d.byVersion) {
		return coherence.NewStructuralWiringError(c.Name(),
			"version %d added at position %d", c.Version(), len(d.byVersion))
	}

	d.byVersion = append(d.byVersion, c)

	switch c := c.(type) {
	case *controller.L1Controller:
		if c.Accelerator {
			d.AccelL1s = append(d.AccelL1s, c)
		} else {
			d.CoreL1s = append(d.CoreL1s, c)
		}
	case *controller.L2Controller:
		d.L2s = append(d.L2s, c)
	case *controller.DirectoryController:
		d.Directories = append(d.Directories, c)
	case *controller.DMAController:
		d.DMAs = append(d.DMAs, c)
	case *controller.IOController:
		d.IO = c
	}

	return nil
}

// Len returns the number of controllers.
func (d *Domain) Len() int {
	return len(d.byVersion)
}

// Controller returns the controller with the given version, or nil.
func (d *Domain) Controller(version int) controller.Controller {
	if version < 0 || version >= len(d.byVersion) {
		return nil
	}

	return d.byVersion[version]
}

// Controllers returns all controllers in version order.
func (d *Domain) Controllers() []controller.Controller {
	return append([]controller.Controller(nil), d.byVersion...)
}

// ControllerByName returns the controller with the given name, or nil.
func (d *Domain) ControllerByName(name string) controller.Controller {
	for _, c := range d.byVersion {
		if c.Name() == name {
			return c
		}
	}

	return nil
}
