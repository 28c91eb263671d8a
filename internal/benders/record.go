package benders

// Cut type tags on iteration records.
const (
	// CutTypeOptimality tags iterations that appended optimality cut(s).
	CutTypeOptimality = "optimality"
	// CutTypeFeasibility tags iterations recovered with a feasibility cut.
	CutTypeFeasibility = "feasibility"
	// CutTypeNone tags terminal iterations that appended no cut.
	CutTypeNone = "none"
)

// IterationRecord is one row of the iteration log. Records are appended only
// by the decomposition loop.
type IterationRecord struct {
	// Index is the 1-based iteration number.
	Index int
	// Investment snapshots the candidate investment vector in technology
	// order.
	Investment []float64
	// Theta snapshots the recourse proxy values returned by the master.
	Theta []float64
	// Recourse is the expected dispatch cost at the candidate investment.
	// Only meaningful when RecourseDefined is true.
	Recourse float64
	// RecourseDefined is false for iterations recovered from an infeasible
	// subproblem, where no recourse value exists.
	RecourseDefined bool
	// LowerBound is the master objective at this iteration.
	LowerBound float64
	// UpperBound is the running minimum of investment plus expected
	// recourse.
	UpperBound float64
	// Gap is UpperBound - LowerBound.
	Gap float64
	// CutType tags what the iteration appended to the master.
	CutType string
}

// Recorder accepts iteration records for an external collaborator to
// persist or display.
type Recorder interface {
	Record(record IterationRecord)
}

// Log is the in-memory append-only Recorder.
type Log struct {
	records []IterationRecord
}

// Record appends one iteration record.
func (l *Log) Record(record IterationRecord) {
	l.records = append(l.records, record)
}

// Records returns a copy of the accumulated records.
func (l *Log) Records() []IterationRecord {
	return append([]IterationRecord(nil), l.records...)
}

// Len returns the number of accumulated records.
func (l *Log) Len() int {
	return len(l.records)
}
