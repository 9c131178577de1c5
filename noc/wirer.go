package noc

// Connect registers the node with the network and attaches each of its ports.
// Outbound ports go to slave endpoints and inbound ports to master endpoints.
// Nodes must be connected in version order.
func Connect(node Node, network *Network) error {
	if err := network.AddNode(node); err != nil {
		return err
	}

	for _, p := range node.Ports() {
		set := network.Slave()
		if RoleFor(p.Direction()) == Master {
			set = network.Master()
		}

		if _, err := set.Attach(p); err != nil {
			return err
		}
	}

	return nil
}
