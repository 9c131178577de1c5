package sim

import (
	"log"
)

// Items with a name are logged by their name.
type describable interface {
	Name() string
}

// LogHook prints every hook invocation as one line of the wrapped logger.
type LogHook struct {
	*log.Logger
}

// NewLogHook creates a LogHook writing through the given logger.
func NewLogHook(logger *log.Logger) *LogHook {
	return &LogHook{Logger: logger}
}

// Func logs the position, the item and the detail of the hook context.
func (h *LogHook) Func(ctx HookCtx) {
	item := ctx.Item
	if d, ok := item.(describable); ok {
		item = d.Name()
	}

	if ctx.Detail == nil {
		h.Printf("[%s] %v", ctx.Pos.Name, item)
		return
	}

	h.Printf("[%s] %v %v", ctx.Pos.Name, item, ctx.Detail)
}
