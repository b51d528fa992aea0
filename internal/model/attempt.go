package model

import "time"

// AttemptRecord is one row of the append-only attempts log. One record
// is written per completed or auto-submitted session; records are never
// updated or deleted.
type AttemptRecord struct {
	StudentID       string    `json:"studentId" bson:"studentId"`
	StudentName     string    `json:"studentName" bson:"studentName"`
	Timestamp       time.Time `json:"timestamp" bson:"timestamp"`
	DurationSeconds int       `json:"durationSeconds" bson:"durationSeconds"`
	Score           string    `json:"score" bson:"score"` // "n/total"
}

// Eligibility is the cooldown gate's answer for one student.
type Eligibility struct {
	Allowed    bool          `json:"allowed"`
	RetryAfter time.Duration `json:"-"`
}
