package model

import "time"

// SurveySubmission is a validated survey body. It only exists for the duration of a request.
type SurveySubmission struct {
	Name         string
	Email        string
	Age          int
	Consent      bool
	Rating       int
	Comments     *string
	Source       *string
	UserAgent    string
	SubmissionID string
}

// StoredSurveyRecord is what gets appended to the submissions log.
// Email and age are only present as hashes.
type StoredSurveyRecord struct {
	Name         string    `json:"name"`
	Consent      bool      `json:"consent"`
	Rating       int       `json:"rating"`
	Comments     *string   `json:"comments"`
	Source       *string   `json:"source"`
	EmailHash    string    `json:"email_hash"`
	AgeHash      string    `json:"age_hash"`
	SubmissionID string    `json:"submission_id"`
	UserAgent    string    `json:"user_agent"`
	ReceivedAt   time.Time `json:"received_at"`
	IP           string    `json:"ip"`
}
