package models

import "time"

// StudySession is a raw tutoring session record. Sessions feed the contact
// hour totals in macro-loop context aggregation.
type StudySession struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	StudentID uint       `gorm:"not null;index" json:"student_id"`
	Subject   string     `gorm:"size:64" json:"subject"`
	StartedAt time.Time  `gorm:"not null;index" json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// Duration returns the session length, falling back to the provided default
// when the end time was never recorded.
func (s StudySession) Duration(fallback time.Duration) time.Duration {
	if s.EndedAt == nil || !s.EndedAt.After(s.StartedAt) {
		return fallback
	}
	return s.EndedAt.Sub(s.StartedAt)
}
