// Package controller builds the coherence controllers of a directory-based
// fabric: per-core L1 caches, shared L2 slices, directories, DMA engines and
// the IO bridge.
package controller

// Kind is the type of a coherence controller.
type Kind int

// Controller kinds.
const (
	KindL1 Kind = iota
	KindL2
	KindDirectory
	KindDMA
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindL1:
		return "L1"
	case KindL2:
		return "L2"
	case KindDirectory:
		return "Directory"
	case KindDMA:
		return "DMA"
	case KindIO:
		return "IO"
	default:
		return "Unknown"
	}
}

// AcceptsSequencer tells if an agent can issue requests through controllers
// of this kind.
func (k Kind) AcceptsSequencer() bool {
	return k == KindL1 || k == KindDMA || k == KindIO
}

// stage is the position of a controller group in version order. Accelerator
// L1 controllers are L1s, but they are numbered after all the core L1s.
type stage int

const (
	stageCoreL1 stage = iota
	stageAccelL1
	stageL2
	stageDirectory
	stageDMA
	stageIO
)

func (s stage) String() string {
	switch s {
	case stageCoreL1:
		return "core L1"
	case stageAccelL1:
		return "accelerator L1"
	case stageL2:
		return "L2"
	case stageDirectory:
		return "directory"
	case stageDMA:
		return "DMA"
	default:
		return "IO"
	}
}
