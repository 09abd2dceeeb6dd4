package pipeline

// RunStats tracks aggregate counters and byte totals across a batch run.
type RunStats struct {
	Total      int
	Current    int
	Renamed    int
	Skipped    int
	Failed     int
	Archived   int
	TotalBytes int64
	ByKind     map[Kind]int
}

func (s *RunStats) countKind(k Kind) {
	if s.ByKind == nil {
		s.ByKind = make(map[Kind]int)
	}
	s.ByKind[k]++
}

// Add merges o into s. Watch mode uses it to keep a running total.
func (s *RunStats) Add(o RunStats) {
	s.Total += o.Total
	s.Current += o.Current
	s.Renamed += o.Renamed
	s.Skipped += o.Skipped
	s.Failed += o.Failed
	s.Archived += o.Archived
	s.TotalBytes += o.TotalBytes
	for k, n := range o.ByKind {
		if s.ByKind == nil {
			s.ByKind = make(map[Kind]int)
		}
		s.ByKind[k] += n
	}
}
