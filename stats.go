package xsort

import "fmt"

// Stats summarizes one sort.
type Stats struct {
	Records int64 // records read from the input
	FanIn   int   // working set size and merge order
	Runs    int   // runs produced by run formation
	Passes  int   // merge passes over the runs
}

// String formats the stats as a header line followed by the values.
func (s Stats) String() string {
	return fmt.Sprintf("#Regs Ways #Runs #Parses\n%d %d %d %d", s.Records, s.FanIn, s.Runs, s.Passes)
}
