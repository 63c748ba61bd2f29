package scenario_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pagingsim/mem/vm"
	"github.com/sarchlab/pagingsim/mem/vm/mmu"
	"github.com/sarchlab/pagingsim/mem/vm/replacement"
	"github.com/sarchlab/pagingsim/scenario"
)

const scriptYAML = `
name: two processes
frames: 2
policy: lru
scope: local
tlb:
  sets: 1
  ways: 4
history: 5
processes:
  - pid: 1
    pages: 4
    page_size: 4096
    resident: [0]
  - pid: 2
    pages: 8
    page_size: 1024
accesses:
  - {pid: 1, vaddr: 4100, kind: write}
  - {pid: 2, vaddr: 0}
  - {pid: 1, vaddr: 16}
`

var _ = Describe("Scenario", func() {
	It("should describe the reference string exercise by default", func() {
		s := scenario.Default()

		Expect(s.Validate()).To(Succeed())
		Expect(s.ReferencePages()).To(HaveLen(20))

		m, sim, err := s.Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(m.FrameCapacity()).To(Equal(5))

		n := 0
		for {
			_, ok, err := sim.Tick()
			Expect(err).NotTo(HaveOccurred())

			if !ok {
				break
			}
			n++
		}

		Expect(n).To(Equal(20))
		Expect(sim.Stats().History).To(HaveLen(20))
		Expect(m.CheckInvariants()).To(Succeed())
	})

	It("should parse and build a scripted scenario", func() {
		s, err := scenario.Parse([]byte(scriptYAML))
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Name).To(Equal("two processes"))
		Expect(s.Accesses[0].Kind).To(Equal(vm.AccessWrite))
		Expect(s.Accesses[1].Kind).To(Equal(vm.AccessRead))

		m, sim, err := s.Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(m.PolicyKind()).To(Equal(replacement.LRU))
		Expect(m.Scope()).To(Equal(mmu.ScopeLocal))
		Expect(m.TLB().NumEntries()).To(Equal(4))

		table, err := m.SnapshotPageTable(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(table[0].Valid).To(BeTrue())
		Expect(table[0].Frame).To(Equal(uint64(0)))

		result, ok, err := sim.Tick()
		Expect(ok).To(BeTrue())
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Outcome).To(Equal(vm.OutcomeFault))
		Expect(result.Frame).To(Equal(uint64(1)))

		table, _ = m.SnapshotPageTable(1)
		Expect(table[1].Modified).To(BeTrue())

		result, _, err = sim.Tick()
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Evicted).To(BeTrue())
		Expect(result.Victim.PID).To(Equal(vm.PID(1)))
		Expect(result.Victim.VPN).To(Equal(uint64(0)))

		Expect(m.CheckInvariants()).To(Succeed())
	})

	It("should load a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "scenario.yaml")
		Expect(os.WriteFile(path, []byte(scriptYAML), 0o644)).To(Succeed())

		s, err := scenario.Load(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Processes).To(HaveLen(2))
	})

	It("should fail to load a missing file", func() {
		_, err := scenario.Load(filepath.Join(GinkgoT().TempDir(), "none.yaml"))

		Expect(err).To(HaveOccurred())
	})

	It("should keep the defaults for the fields that are not set", func() {
		s, err := scenario.Parse([]byte("processes: [{pid: 1, pages: 2, page_size: 64}]"))

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Frames).To(Equal(5))
		Expect(s.History).To(Equal(20))
		Expect(s.ReferenceString).To(BeNil())
	})

	It("should generate random accesses in the smallest address space", func() {
		s, err := scenario.Parse([]byte(`
frames: 3
policy: clock
processes:
  - {pid: 1, pages: 16, page_size: 4096}
  - {pid: 2, pages: 4, page_size: 4096}
random: {seed: 3, pids: [1, 2], count: 50, write_fraction: 0.25}
`))
		Expect(err).NotTo(HaveOccurred())

		m, sim, err := s.Build()
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < 50; i++ {
			result, ok, err := sim.Tick()
			Expect(ok).To(BeTrue())
			Expect(err).NotTo(HaveOccurred())
			Expect(result.VPN).To(BeNumerically("<", 4))
		}

		_, ok, _ := sim.Tick()
		Expect(ok).To(BeFalse())
		Expect(sim.Stats().Total()).To(Equal(uint64(50)))
		Expect(m.CheckInvariants()).To(Succeed())
	})

	It("should count the accesses it performs", func() {
		n, bounded := scenario.Default().NumAccesses()
		Expect(n).To(Equal(20))
		Expect(bounded).To(BeTrue())

		s, err := scenario.Parse([]byte(scriptYAML))
		Expect(err).NotTo(HaveOccurred())
		n, bounded = s.NumAccesses()
		Expect(n).To(Equal(3))
		Expect(bounded).To(BeTrue())

		s, err = scenario.Parse([]byte(`
processes: [{pid: 1, pages: 2, page_size: 64}]
random: {seed: 1, pids: [1]}
`))
		Expect(err).NotTo(HaveOccurred())
		_, bounded = s.NumAccesses()
		Expect(bounded).To(BeFalse())
	})

	DescribeTable("should reject inconsistent scenarios",
		func(doc string) {
			_, err := scenario.Parse([]byte(doc))

			Expect(err).To(HaveOccurred())
		},
		Entry("unknown field", "framez: 3"),
		Entry("zero frames", "frames: 0"),
		Entry("unknown policy", "policy: optimal"),
		Entry("unknown scope", "scope: both"),
		Entry("bad tlb", "tlb: {sets: 0, ways: 2}"),
		Entry("zero history", "history: 0"),
		Entry("zero page size", "processes: [{pid: 1, pages: 2}]"),
		Entry("duplicated process", `
processes:
  - {pid: 1, pages: 2, page_size: 64}
  - {pid: 1, pages: 2, page_size: 64}`),
		Entry("unknown access kind", `
processes: [{pid: 1, pages: 2, page_size: 64}]
accesses: [{pid: 1, vaddr: 0, kind: execute}]`),
		Entry("reference string of an unknown process", `
reference_string: {pid: 4, pages: [1, 2]}`),
		Entry("empty reference string", `
processes: [{pid: 1, pages: 2, page_size: 64}]
reference_string: {pid: 1}`),
		Entry("random without process", `
processes: [{pid: 1, pages: 2, page_size: 64}]
random: {seed: 1}`),
		Entry("bad write fraction", `
processes: [{pid: 1, pages: 2, page_size: 64}]
random: {pids: [1], write_fraction: 2}`),
		Entry("two access sources", `
processes: [{pid: 1, pages: 2, page_size: 64}]
accesses: [{pid: 1, vaddr: 0}]
reference_string: {pid: 1, pages: [0]}`),
	)

	It("should fail to preload a page twice", func() {
		s, err := scenario.Parse([]byte(
			"processes: [{pid: 1, pages: 2, page_size: 64, resident: [1, 1]}]"))
		Expect(err).NotTo(HaveOccurred())

		_, _, err = s.Build()

		Expect(err).To(MatchError(vm.ErrPageAlreadyValid))
	})
})
