// Package models holds the rules record shared by the curator, the stores and
// the script host.
package models

import "time"

// Source records where the active rules came from.
type Source string

const (
	SourceDatabase Source = "database"
	SourceDefault  Source = "default"
)

// Rules is one version of the rule script.
type Rules struct {
	Version   string    `json:"version"`
	Source    Source    `json:"source"`
	Body      string    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}
