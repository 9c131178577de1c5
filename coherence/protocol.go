package coherence

// MOESICMPDirectory is the two-level MOESI directory protocol that the
// fabric layout in this module is designed for.
const MOESICMPDirectory = "MOESI_CMP_directory"

// CompiledProtocol is the protocol whose controller state machines are linked
// into the binary. It can be overridden at link time with
// -ldflags "-X github.com/sarchlab/cohfabric/coherence.CompiledProtocol=...".
var CompiledProtocol = MOESICMPDirectory

// ProtocolMustMatch returns a ConfigurationError if the requested protocol is
// not the compiled one.
func ProtocolMustMatch(requested string) error {
	if requested != CompiledProtocol {
		return NewConfigurationError("protocol",
			"%q requested, but the build provides %q",
			requested, CompiledProtocol)
	}

	return nil
}
