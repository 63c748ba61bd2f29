package cmd

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pagingsim/datarecording"
)

var _ = Describe("Show", func() {
	It("should build the access query", func() {
		q := accessQuery("run", 2, true, 10, 5)

		Expect(q.Where).To(Equal("RunID = ? AND PID = ? AND Outcome = ?"))
		Expect(q.Args).To(Equal([]any{"run", 2, "fault"}))
		Expect(q.OrderBy).To(Equal("RunID, Seq"))
		Expect(q.Limit).To(Equal(10))
		Expect(q.Offset).To(Equal(5))

		Expect(accessQuery("", -1, false, 0, 0).Where).To(BeEmpty())
	})

	It("should format access entries", func() {
		Expect(formatAccessEntry(datarecording.AccessEntry{
			Seq: 3, PID: 1, Kind: "write", VAddr: 0x1004,
			Translated: true, PAddr: 0x2004, Frame: 2,
			Outcome: "fault", Reason: "not resident",
			Evicted: true, VictimPID: 1, VictimVPN: 0,
		})).To(Equal("#3 PID 1 write VA 0x1004 -> PA 0x2004 (frame 2) " +
			"fault, not resident, evicted PID 1 page 0"))

		Expect(formatAccessEntry(datarecording.AccessEntry{
			Seq: 4, PID: 1, Kind: "read", VAddr: 0x9000,
			Outcome: "fault", Reason: "no such page",
		})).To(Equal("#4 PID 1 read VA 0x9000 fault, no such page"))
	})

	It("should show a recorded run", func() {
		path := filepath.Join(GinkgoT().TempDir(), "run")

		s, err := loadScenario(newTestCommand(), envOf(nil))
		Expect(err).ToNot(HaveOccurred())

		m, sim, err := s.Build()
		Expect(err).ToNot(HaveOccurred())

		db := datarecording.New(path)
		recorder := datarecording.NewAccessRecorder(db)
		recorder.Start(s.Name)
		m.AcceptHook(recorder)

		_, err = runSimulation(m, sim, 0, 0)
		Expect(err).ToNot(HaveOccurred())

		recorder.End()
		Expect(db.Close()).To(Succeed())

		reader := datarecording.NewAccessReader(path + ".sqlite3")
		defer reader.Close()

		buf := new(bytes.Buffer)
		err = showRecording(context.Background(), buf, reader,
			accessQuery("", -1, false, 0, 0), "")
		Expect(err).ToNot(HaveOccurred())

		out := buf.String()
		Expect(out).To(ContainSubstring("Run " + recorder.RunID()))
		Expect(out).To(ContainSubstring("  Scenario: default\n"))
		Expect(out).To(ContainSubstring("Showing 20 of 20 accesses."))

		buf.Reset()
		err = showRecording(context.Background(), buf, reader,
			accessQuery(recorder.RunID(), 1, true, 0, 0), recorder.RunID())
		Expect(err).ToNot(HaveOccurred())

		faults := sim.Stats().Faults
		Expect(buf.String()).To(ContainSubstring(
			fmt.Sprintf("Showing %d of %d accesses.", faults, faults)))
	})
})
