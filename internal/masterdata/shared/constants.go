// Package shared holds pieces common to every master data entity: lifecycle
// status, list scoping, and the dynamic filter builder used by repositories.
package shared

import "github.com/solutions-liquify/tms/model"

// Status is the lifecycle state of a master data record.
type Status = model.RecordStatus

const (
	StatusActive   = model.RecordActive
	StatusInactive = model.RecordInactive
)

// Scope resolves the statuses a listing should include. Picker listings
// (getAll) default to active records only; regular listings include both.
func Scope(statuses []Status, getAll bool) []Status {
	if len(statuses) > 0 {
		return statuses
	}
	if getAll {
		return []Status{StatusActive}
	}
	return nil
}

// StatusStrings converts statuses into SQL arguments.
func StatusStrings(statuses []Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
