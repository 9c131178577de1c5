package sim

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type namedItem struct{ name string }

func (n namedItem) Name() string { return n.name }

var _ = Describe("Hooks", func() {
	var (
		base *HookableBase
		pos  *HookPos
	)

	BeforeEach(func() {
		base = &HookableBase{}
		pos = &HookPos{Name: "Controller Created"}
	})

	It("should invoke hooks in registration order", func() {
		order := []int{}
		base.AcceptHook(HookFunc(func(HookCtx) { order = append(order, 1) }))
		base.AcceptHook(HookFunc(func(HookCtx) { order = append(order, 2) }))

		base.InvokeHook(HookCtx{Pos: pos})

		Expect(base.NumHooks()).To(Equal(2))
		Expect(order).To(Equal([]int{1, 2}))
	})

	It("should log named items by name", func() {
		buf := new(bytes.Buffer)
		hook := NewLogHook(log.New(buf, "", 0))
		base.AcceptHook(hook)

		base.InvokeHook(HookCtx{
			Pos:    pos,
			Item:   namedItem{"Ruby.L1Cntrl[0]"},
			Detail: 0,
		})
		base.InvokeHook(HookCtx{Pos: pos, Item: "plain"})

		Expect(buf.String()).To(Equal(
			"[Controller Created] Ruby.L1Cntrl[0] 0\n" +
				"[Controller Created] plain\n"))
	})
})

var _ = Describe("IDGenerator", func() {
	It("should generate sequential ids", func() {
		g := NewSequentialIDGenerator()
		Expect(g.Generate()).To(Equal("1"))
		Expect(g.Generate()).To(Equal("2"))
	})

	It("should keep sequential generators independent", func() {
		g1 := NewSequentialIDGenerator()
		g2 := NewSequentialIDGenerator()
		g1.Generate()
		Expect(g2.Generate()).To(Equal("1"))
	})

	It("should generate unique parallel ids", func() {
		g := NewParallelIDGenerator()
		Expect(g.Generate()).NotTo(Equal(g.Generate()))
	})
})
