package accesssim

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/pagingsim/mem/vm"
	"github.com/sarchlab/pagingsim/mem/vm/mmu"
)

var _ = Describe("Simulator", func() {
	var (
		mockCtrl *gomock.Controller
		accessor *MockAccessor
		sim      *Simulator
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		accessor = NewMockAccessor(mockCtrl)
		sim = MakeBuilder().
			WithAccessor(accessor).
			WithHistoryCapacity(3).
			Build("Sim")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should not build without an accessor", func() {
		Expect(MakeBuilder().Validate()).To(HaveOccurred())
		Expect(func() { MakeBuilder().Build("Sim") }).To(Panic())
	})

	It("should count the outcomes", func() {
		accessor.EXPECT().
			Access(vm.PID(1), uint64(0), vm.AccessRead).
			Return(vm.AccessResult{Seq: 1, Outcome: vm.OutcomeFault}, nil)
		accessor.EXPECT().
			Access(vm.PID(1), uint64(0), vm.AccessWrite).
			Return(vm.AccessResult{Seq: 2, Outcome: vm.OutcomeHit}, nil)
		accessor.EXPECT().
			Access(vm.PID(1), uint64(8), vm.AccessRead).
			Return(vm.AccessResult{Seq: 3, Outcome: vm.OutcomeMiss}, nil)

		results, err := sim.Run([]Request{
			{PID: 1, VAddr: 0, Kind: vm.AccessRead},
			{PID: 1, VAddr: 0, Kind: vm.AccessWrite},
			{PID: 1, VAddr: 8, Kind: vm.AccessRead},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))

		stats := sim.Stats()
		Expect(stats.Hits).To(Equal(uint64(1)))
		Expect(stats.Misses).To(Equal(uint64(1)))
		Expect(stats.Faults).To(Equal(uint64(1)))
		Expect(stats.Total()).To(Equal(uint64(3)))
		Expect(stats.HitRate()).To(BeNumerically("~", 1.0/3))
		Expect(stats.FaultRate()).To(BeNumerically("~", 1.0/3))
		Expect(stats.History).To(HaveLen(3))
	})

	It("should keep a bounded history", func() {
		for i := 1; i <= 5; i++ {
			accessor.EXPECT().
				Access(vm.PID(1), uint64(i), vm.AccessRead).
				Return(vm.AccessResult{Seq: uint64(i)}, nil)

			_, err := sim.Step(Request{PID: 1, VAddr: uint64(i)})
			Expect(err).NotTo(HaveOccurred())
		}

		history := sim.Stats().History
		Expect(history).To(HaveLen(3))
		Expect(history[0].Seq).To(Equal(uint64(3)))
		Expect(history[2].Seq).To(Equal(uint64(5)))
	})

	It("should count an access to a missing page as a fault", func() {
		accessor.EXPECT().
			Access(vm.PID(1), uint64(1<<20), vm.AccessRead).
			Return(vm.AccessResult{
				Outcome: vm.OutcomeFault,
				Reason:  vm.FaultNoSuchPage,
			}, fmt.Errorf("page 256: %w", vm.ErrInvalidPage))

		_, err := sim.Step(Request{PID: 1, VAddr: 1 << 20})

		Expect(err).To(MatchError(vm.ErrInvalidPage))
		Expect(sim.Stats().Faults).To(Equal(uint64(1)))
	})

	It("should not count failed accesses", func() {
		accessor.EXPECT().
			Access(vm.PID(7), uint64(0), vm.AccessRead).
			Return(vm.AccessResult{}, vm.ErrUnknownProcess)

		_, err := sim.Step(Request{PID: 7})

		Expect(err).To(MatchError(vm.ErrUnknownProcess))
		Expect(sim.Stats().Total()).To(BeZero())
	})

	It("should stop running at the first error", func() {
		errBroken := errors.New("broken")
		accessor.EXPECT().
			Access(vm.PID(1), uint64(0), vm.AccessRead).
			Return(vm.AccessResult{}, errBroken)

		results, err := sim.Run([]Request{{PID: 1}, {PID: 2}})

		Expect(err).To(MatchError(errBroken))
		Expect(results).To(HaveLen(1))
	})

	It("should not mutate the statistics when reading them", func() {
		accessor.EXPECT().
			Access(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(vm.AccessResult{Outcome: vm.OutcomeHit}, nil)
		_, err := sim.Step(Request{PID: 1})
		Expect(err).NotTo(HaveOccurred())

		first := sim.Stats()
		first.History[0].Seq = 99
		second := sim.Stats()

		Expect(second.Hits).To(Equal(uint64(1)))
		Expect(second.History[0].Seq).To(BeZero())
		Expect(sim.Stats()).To(Equal(second))
	})

	It("should tick through the generator", func() {
		sim = MakeBuilder().
			WithAccessor(accessor).
			WithGenerator(NewScript([]Request{{PID: 1, VAddr: 4}})).
			Build("Sim")

		accessor.EXPECT().
			Access(vm.PID(1), uint64(4), vm.AccessRead).
			Return(vm.AccessResult{Outcome: vm.OutcomeHit}, nil).
			Times(2)

		_, ok, err := sim.Tick()
		Expect(ok).To(BeTrue())
		Expect(err).NotTo(HaveOccurred())

		_, ok, _ = sim.Tick()
		Expect(ok).To(BeFalse())

		sim.Reset()
		Expect(sim.Stats().Total()).To(BeZero())

		_, ok, _ = sim.Tick()
		Expect(ok).To(BeTrue())
		Expect(sim.Stats().Hits).To(Equal(uint64(1)))
	})

	It("should not tick without a generator", func() {
		_, ok, err := sim.Tick()

		Expect(ok).To(BeFalse())
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("Simulator with an MMU", func() {
	It("should replay a reference string under FIFO", func() {
		m := mmu.MakeBuilder().WithFrameCapacity(3).Build("MMU")
		Expect(m.RegisterProcess(1, 8, 4096)).To(Succeed())

		pages := []uint64{7, 0, 1, 2, 0, 3, 0, 4, 2, 3, 0, 3, 2}
		sim := MakeBuilder().
			WithAccessor(m).
			WithGenerator(NewReferenceString(1, 4096, pages)).
			Build("Sim")

		for {
			_, ok, err := sim.Tick()
			Expect(err).NotTo(HaveOccurred())

			if !ok {
				break
			}
		}

		stats := sim.Stats()
		Expect(stats.Faults).To(Equal(uint64(10)))
		Expect(stats.Hits).To(Equal(uint64(3)))
		Expect(m.CheckInvariants()).To(Succeed())
	})
})
