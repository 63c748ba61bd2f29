package frame

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pagingsim/mem/vm"
)

var _ = Describe("Allocator", func() {
	var (
		a Allocator
	)

	BeforeEach(func() {
		a = NewAllocator(3)
	})

	It("should start with all frames free", func() {
		Expect(a.Capacity()).To(Equal(3))
		Expect(a.NumFree()).To(Equal(3))

		for i, f := range a.Frames() {
			Expect(f.Number).To(Equal(uint64(i)))
			Expect(f.Occupied).To(BeFalse())
		}
	})

	It("should allocate the lowest free frame", func() {
		f0, ok := a.Allocate(1, 10)
		Expect(ok).To(BeTrue())
		f1, _ := a.Allocate(1, 11)
		_, _ = a.Allocate(2, 0)

		Expect(f0).To(Equal(uint64(0)))
		Expect(f1).To(Equal(uint64(1)))
		Expect(a.Free(0)).To(Succeed())

		f, ok := a.Allocate(2, 1)
		Expect(ok).To(BeTrue())
		Expect(f).To(Equal(uint64(0)))
	})

	It("should report no frame when exhausted", func() {
		for i := 0; i < 3; i++ {
			_, ok := a.Allocate(1, uint64(i))
			Expect(ok).To(BeTrue())
		}

		_, ok := a.Allocate(1, 3)

		Expect(ok).To(BeFalse())
		Expect(a.NumFree()).To(Equal(0))
	})

	It("should track occupants", func() {
		f, _ := a.Allocate(4, 9)

		pid, vpn, occupied := a.OccupantOf(f)
		Expect(occupied).To(BeTrue())
		Expect(pid).To(Equal(vm.PID(4)))
		Expect(vpn).To(Equal(uint64(9)))

		owned, found := a.FrameOf(4, 9)
		Expect(found).To(BeTrue())
		Expect(owned).To(Equal(f))
	})

	It("should panic when a page is bound twice", func() {
		_, _ = a.Allocate(1, 1)

		Expect(func() { a.Allocate(1, 1) }).To(Panic())
	})

	It("should refuse to free a free frame", func() {
		Expect(a.Free(1)).To(MatchError(vm.ErrDuplicateFrameBinding))
		Expect(a.Free(7)).To(MatchError(vm.ErrDuplicateFrameBinding))
	})

	It("should grow", func() {
		dropped := a.Resize(5)

		Expect(dropped).To(BeEmpty())
		Expect(a.Capacity()).To(Equal(5))
		Expect(a.NumFree()).To(Equal(5))
	})

	It("should return occupants dropped by shrinking", func() {
		_, _ = a.Allocate(1, 0)
		_, _ = a.Allocate(1, 1)
		_, _ = a.Allocate(1, 2)
		Expect(a.Free(1)).To(Succeed())

		dropped := a.Resize(1)

		Expect(dropped).To(HaveLen(1))
		Expect(dropped[0].Number).To(Equal(uint64(2)))
		Expect(dropped[0].VPN).To(Equal(uint64(2)))
		Expect(a.Capacity()).To(Equal(1))
		Expect(a.NumFree()).To(Equal(0))
		_, found := a.FrameOf(1, 2)
		Expect(found).To(BeFalse())
	})
})
