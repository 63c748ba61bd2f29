package addresstranslator

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/pagingsim/mem/vm"
	"github.com/sarchlab/pagingsim/mem/vm/tlb"
)

var _ = Describe("Address Translator", func() {
	var (
		mockCtrl  *gomock.Controller
		pageTable *MockPageTable
		t         *Comp
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		pageTable = NewMockPageTable(mockCtrl)
		pageTable.EXPECT().PID().Return(vm.PID(1)).AnyTimes()
		pageTable.EXPECT().PageSize().Return(uint64(4096)).AnyTimes()

		t = MakeBuilder().Build("AT")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should decompose addresses", func() {
		vpn, offset := Decompose(4100, 4096)

		Expect(vpn).To(Equal(uint64(1)))
		Expect(offset).To(Equal(uint64(4)))
	})

	It("should report a missing page", func() {
		pageTable.EXPECT().
			Lookup(uint64(12)).
			Return(vm.Page{}, vm.ErrInvalidPage)

		tr, err := t.Translate(pageTable, 12*4096+1, vm.AccessRead)

		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Outcome).To(Equal(vm.OutcomeFault))
		Expect(tr.Reason).To(Equal(vm.FaultNoSuchPage))
		Expect(tr.Translated).To(BeFalse())
	})

	It("should report a page that is not resident", func() {
		pageTable.EXPECT().
			Lookup(uint64(1)).
			Return(vm.Page{PID: 1, VPN: 1}, nil)

		tr, err := t.Translate(pageTable, 4100, vm.AccessRead)

		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Outcome).To(Equal(vm.OutcomeFault))
		Expect(tr.Reason).To(Equal(vm.FaultNotResident))
	})

	It("should mark a read page as referenced only", func() {
		pageTable.EXPECT().
			Lookup(uint64(1)).
			Return(vm.Page{PID: 1, VPN: 1, Frame: 3, Valid: true}, nil)
		pageTable.EXPECT().MarkReferenced(uint64(1)).Return(nil)

		tr, err := t.Translate(pageTable, 4100, vm.AccessRead)

		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Outcome).To(Equal(vm.OutcomeHit))
		Expect(tr.Translated).To(BeTrue())
		Expect(tr.Frame).To(Equal(uint64(3)))
		Expect(tr.PAddr).To(Equal(uint64(3*4096 + 4)))
	})

	It("should mark a written page as modified", func() {
		pageTable.EXPECT().
			Lookup(uint64(1)).
			Return(vm.Page{PID: 1, VPN: 1, Frame: 3, Valid: true}, nil)
		pageTable.EXPECT().MarkReferenced(uint64(1)).Return(nil)
		pageTable.EXPECT().MarkModified(uint64(1)).Return(nil)

		_, err := t.Translate(pageTable, 4100, vm.AccessWrite)

		Expect(err).NotTo(HaveOccurred())
	})

	Context("with a TLB", func() {
		var (
			table vm.PageTable
			cache *tlb.Comp
		)

		BeforeEach(func() {
			var err error
			table, err = vm.NewPageTable(2, 4, 1024)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Install(2, 7)).To(Succeed())

			cache = tlb.MakeBuilder().WithNumSets(1).WithNumWays(2).Build("TLB")
			t = MakeBuilder().WithTLB(cache).Build("AT")
		})

		It("should miss first and hit afterwards", func() {
			first, err := t.Translate(table, 2*1024+5, vm.AccessRead)
			Expect(err).NotTo(HaveOccurred())
			second, err := t.Translate(table, 2*1024+6, vm.AccessRead)
			Expect(err).NotTo(HaveOccurred())

			Expect(first.Outcome).To(Equal(vm.OutcomeMiss))
			Expect(second.Outcome).To(Equal(vm.OutcomeHit))
			Expect(second.PAddr).To(Equal(uint64(7*1024 + 6)))
		})

		It("should not trust a stale TLB entry", func() {
			cache.Insert(2, 2, 1)

			tr, err := t.Translate(table, 2*1024, vm.AccessRead)

			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Outcome).To(Equal(vm.OutcomeMiss))
			Expect(tr.Frame).To(Equal(uint64(7)))
			frame, _ := cache.Lookup(2, 2)
			Expect(frame).To(Equal(uint64(7)))
		})

		It("should mark the page as referenced", func() {
			_, err := t.Translate(table, 2*1024, vm.AccessWrite)
			Expect(err).NotTo(HaveOccurred())

			page, _ := table.Lookup(2)
			Expect(page.Referenced).To(BeTrue())
			Expect(page.Modified).To(BeTrue())
		})
	})
})
