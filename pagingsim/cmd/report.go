package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/pagingsim/mem/vm/accesssim"
	"github.com/sarchlab/pagingsim/mem/vm/frame"
)

func printReferenceString(w io.Writer, pages []uint64) {
	s := make([]string, len(pages))
	for i, p := range pages {
		s[i] = fmt.Sprint(p)
	}

	fmt.Fprintf(w, "Reference string: %s\n", strings.Join(s, " "))
}

func printStats(w io.Writer, requests int, stats accesssim.Stats) {
	fmt.Fprintf(w, "Requests: %d\n", requests)
	fmt.Fprintf(w, "Hits: %d, Misses: %d, Faults: %d\n",
		stats.Hits, stats.Misses, stats.Faults)
	fmt.Fprintf(w, "Hit rate: %.2f%%, Fault rate: %.2f%%\n",
		stats.HitRate()*100, stats.FaultRate()*100)
}

func printFrames(w io.Writer, frames []frame.Frame) {
	for _, f := range frames {
		if !f.Occupied {
			fmt.Fprintf(w, "Frame %d: free\n", f.Number)
			continue
		}

		fmt.Fprintf(w, "Frame %d: PID %d page %d\n", f.Number, f.PID, f.VPN)
	}
}
