package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("HookableBase", func() {
	var (
		mockCtrl *gomock.Controller
		hookable *HookableBase
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		hookable = NewHookableBase()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should invoke every hook", func() {
		hook1 := NewMockHook(mockCtrl)
		hook2 := NewMockHook(mockCtrl)
		hookable.AcceptHook(hook1)
		hookable.AcceptHook(hook2)

		ctx := HookCtx{Pos: HookPosBeforeEvent}
		hook1.EXPECT().Func(ctx)
		hook2.EXPECT().Func(ctx)

		hookable.InvokeHook(ctx)

		Expect(hookable.NumHooks()).To(Equal(2))
	})

	It("should reject the same hook twice", func() {
		hook := NewMockHook(mockCtrl)
		hookable.AcceptHook(hook)

		Expect(func() { hookable.AcceptHook(hook) }).To(Panic())
	})

	It("should accept several hook functions", func() {
		count := 0
		hookable.AcceptHook(HookFunc(func(HookCtx) { count++ }))
		hookable.AcceptHook(HookFunc(func(HookCtx) { count++ }))

		hookable.InvokeHook(HookCtx{Pos: HookPosAfterEvent})

		Expect(count).To(Equal(2))
	})
})
