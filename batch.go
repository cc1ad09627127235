package intel

// Outcome is the result of one pipeline run for a single URL.
type Outcome struct {
	URL string `json:"url"`

	// Article is the stored record. Nil only when nothing could be persisted.
	Article *Article `json:"article,omitempty"`

	// Skipped is true when the URL already had a record and nothing was done.
	Skipped bool `json:"skipped"`

	// Reason is a human-readable failure reason for failed runs.
	Reason string `json:"reason,omitempty"`
}

// Status returns the status of the stored record, or failed if none exists.
func (o *Outcome) Status() Status {
	if o.Article == nil {
		return StatusFailed
	}
	return o.Article.Status
}

// BatchResult summarizes a batch of pipeline runs.
type BatchResult struct {
	Outcomes []*Outcome `json:"outcomes"`
	Complete int        `json:"complete"`
	Failed   int        `json:"failed"`
	Pending  int        `json:"pending"`
	Skipped  int        `json:"skipped"`
}

// Add appends an outcome and updates the counters.
func (r *BatchResult) Add(o *Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Skipped {
		r.Skipped++
		return
	}
	switch o.Status() {
	case StatusComplete:
		r.Complete++
	case StatusPending:
		r.Pending++
	default:
		r.Failed++
	}
}
