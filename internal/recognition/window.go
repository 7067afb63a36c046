package recognition

import (
	"fmt"
	"time"
)

// Window modes. Daily keys one admission window per calendar day in the
// configured timezone; Interval buckets wall-clock into fixed spans for
// session-style attendance.
const (
	WindowDaily    = "daily"
	WindowInterval = "interval"
)

// WindowPolicy derives the admission window key from a point in time.
// The ledger treats the key as opaque; all wall-clock policy lives here.
type WindowPolicy struct {
	Mode     string
	Location *time.Location
	Interval time.Duration
}

// Key returns the window key for t. Keys are stable: two times inside
// the same admission window always map to the same key.
func (p WindowPolicy) Key(t time.Time) string {
	switch p.Mode {
	case WindowInterval:
		if p.Interval <= 0 {
			return fmt.Sprintf("w%d", t.Unix())
		}
		return fmt.Sprintf("w%d", t.Unix()/int64(p.Interval/time.Second))
	default:
		loc := p.Location
		if loc == nil {
			loc = time.Local
		}
		return t.In(loc).Format("2006-01-02")
	}
}
