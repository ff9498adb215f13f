package pipeline

// Outcome is the terminal state of one item.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Failure describes one item that did not reach the ledger.
type Failure struct {
	Path   string
	Digest string
	Stage  string
	Cause  string
	Err    error
}

// Summary aggregates the outcomes of one run.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
	Failures  []Failure
	// Published maps each processed source path to its record id.
	Published map[string]string
}

// Total returns the number of items that reached a terminal outcome.
func (s Summary) Total() int {
	return s.Processed + s.Skipped + s.Failed
}

// Progress is reported to Options.OnProgress after every item.
type Progress struct {
	Done    int
	Total   int
	Path    string
	Outcome Outcome
}

type itemResult struct {
	path    string
	digest  string
	outcome Outcome
	slug    string
	stage   string
	err     error
}

func (s *Summary) add(res itemResult) {
	switch res.outcome {
	case OutcomeProcessed:
		s.Processed++
		if s.Published == nil {
			s.Published = make(map[string]string)
		}
		s.Published[res.path] = res.slug
	case OutcomeSkipped:
		s.Skipped++
	default:
		s.Failed++
		s.Failures = append(s.Failures, Failure{
			Path:   res.path,
			Digest: res.digest,
			Stage:  res.stage,
			Cause:  causeOf(res.err),
			Err:    res.err,
		})
	}
}
