package bracket

import "time"

// Record is one qualifying image: a frame the camera flagged as part of an
// auto-bracket burst.
type Record struct {
	// ID uniquely identifies the source file for the lifetime of a scan,
	// typically its slash-separated path relative to the scan root.
	ID            string
	Timestamp     time.Time
	ExposureValue float64
}

// Group is a resolved bracket as emitted at the end of a scan.
type Group struct {
	Kind    Kind
	Members []Record
}

// IDs returns the member identifiers in stored order.
func (g Group) IDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ID
	}
	return ids
}
