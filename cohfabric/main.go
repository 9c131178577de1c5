// Command cohfabric builds and inspects directory-coherence fabrics.
package main

import "github.com/sarchlab/cohfabric/cohfabric/cmd"

func main() {
	cmd.Execute()
}
