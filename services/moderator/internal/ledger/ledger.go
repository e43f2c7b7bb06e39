// Package ledger tracks per-user violation history across moderation passes.
package ledger

import "slices"

// BlockedSentinel marks a record whose user has already been blocked.
// The count never moves again once the sentinel is written.
const BlockedSentinel = 999

// Record is the durable violation state for one user. CommentRPIDs and
// CommentContents are parallel: entry i of each describes the same comment.
type Record struct {
	Username        string   `json:"username"`
	UID             int64    `json:"uid"`
	ViolationCount  int      `json:"violation_count"`
	CommentRPIDs    []int64  `json:"comment_rpids"`
	CommentContents []string `json:"comment_contents"`
}

func (r Record) clone() Record {
	r.CommentRPIDs = slices.Clone(r.CommentRPIDs)
	r.CommentContents = slices.Clone(r.CommentContents)
	return r
}

// Ledger is the in-memory working set, ordered by first offense and unique
// by uid. It is not safe for concurrent mutation: exactly one detector owns
// it during the detecting phase.
type Ledger struct {
	records []Record
	index   map[int64]int
}

func New() *Ledger {
	return &Ledger{index: make(map[int64]int)}
}

// FromRecords builds a ledger from previously persisted records. A later
// duplicate of a uid is dropped in favour of the first occurrence.
func FromRecords(recs []Record) *Ledger {
	l := New()
	for _, r := range recs {
		if _, ok := l.index[r.UID]; ok {
			continue
		}
		l.index[r.UID] = len(l.records)
		l.records = append(l.records, r.clone())
	}
	return l
}

// RecordViolation creates or updates the record for uid and returns a copy
// of its new state. The username is always refreshed to the last seen value.
func (l *Ledger) RecordViolation(uid int64, username string, rpid int64, body string) Record {
	i, ok := l.index[uid]
	if !ok {
		l.index[uid] = len(l.records)
		l.records = append(l.records, Record{
			Username:        username,
			UID:             uid,
			ViolationCount:  1,
			CommentRPIDs:    []int64{rpid},
			CommentContents: []string{body},
		})
		return l.records[len(l.records)-1].clone()
	}

	r := &l.records[i]
	r.Username = username
	r.ViolationCount++
	r.CommentRPIDs = append(r.CommentRPIDs, rpid)
	r.CommentContents = append(r.CommentContents, body)
	return r.clone()
}

// MarkBlocked pins uid's count to the blocked sentinel. Idempotent; a uid
// with no record is a no-op.
func (l *Ledger) MarkBlocked(uid int64) {
	if i, ok := l.index[uid]; ok {
		l.records[i].ViolationCount = BlockedSentinel
	}
}

// Get returns a copy of uid's record, if any.
func (l *Ledger) Get(uid int64) (Record, bool) {
	i, ok := l.index[uid]
	if !ok {
		return Record{}, false
	}
	return l.records[i].clone(), true
}

// Records returns a copy of all records in insertion order, for persistence.
func (l *Ledger) Records() []Record {
	out := make([]Record, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, r.clone())
	}
	return out
}

func (l *Ledger) Len() int {
	return len(l.records)
}
