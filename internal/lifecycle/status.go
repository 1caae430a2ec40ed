// Package lifecycle holds the RFQ / quotation status rules: which status an RFQ moves to when
// a new quotation version is entered, and what can still be done in a given status.
//
// Everything here is a pure lookup over immutable tables and is safe for concurrent use.
package lifecycle

import (
	"fmt"
	"strings"
)

// Status is the lifecycle status shared by RFQs and quotation versions.
type Status string

const (
	StatusNew         Status = "NEW"
	StatusDraft       Status = "DRAFT"
	StatusPriced      Status = "PRICED"
	StatusSent        Status = "SENT"
	StatusNegotiating Status = "NEGOTIATING"
	StatusAccepted    Status = "ACCEPTED"
	StatusDeclined    Status = "DECLINED"
	StatusProcessed   Status = "PROCESSED"
)

// EntryType is the provenance of a new quotation version.
type EntryType string

const (
	EntryInternalQuote    EntryType = "internal_quote"
	EntryCustomerFeedback EntryType = "customer_feedback"
	EntryCounterOffer     EntryType = "counter_offer"
)

// Rules describes what an RFQ in a given status allows.
type Rules struct {
	Status               Status   `json:"status"`
	CanCreateVersion     bool     `json:"can_create_version"`
	CanEdit              bool     `json:"can_edit"`
	NextPossibleStatuses []Status `json:"next_possible_statuses"`
}

type statusRule struct {
	editable bool
	next     []Status
}

// statusTable lists every known status. ACCEPTED and DECLINED are closed for editing;
// PROCESSED is fully terminal.
var statusTable = map[Status]statusRule{
	StatusNew:         {editable: true, next: []Status{StatusDraft, StatusPriced}},
	StatusDraft:       {editable: true, next: []Status{StatusPriced}},
	StatusPriced:      {editable: true, next: []Status{StatusDraft, StatusSent}},
	StatusSent:        {editable: true, next: []Status{StatusNegotiating, StatusAccepted, StatusDeclined}},
	StatusNegotiating: {editable: true, next: []Status{StatusPriced, StatusSent, StatusAccepted, StatusDeclined}},
	StatusAccepted:    {editable: false, next: []Status{StatusProcessed}},
	StatusDeclined:    {editable: false, next: []Status{StatusDraft}},
	StatusProcessed:   {editable: false},
}

// entryTransition is one row of the version-entry transition table.
// An empty From matches any status.
type entryTransition struct {
	Entry EntryType
	From  Status
	To    Status
}

var entryTransitions = []entryTransition{
	{Entry: EntryInternalQuote, From: StatusSent, To: StatusNegotiating},
	{Entry: EntryInternalQuote, From: StatusNew, To: StatusPriced},
	{Entry: EntryInternalQuote, From: StatusDraft, To: StatusPriced},
	{Entry: EntryCustomerFeedback, From: StatusSent, To: StatusNegotiating},
	{Entry: EntryCustomerFeedback, From: StatusPriced, To: StatusNegotiating},
	{Entry: EntryCounterOffer, To: StatusNegotiating},
}

// AllStatuses returns the statuses in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusNew, StatusDraft, StatusPriced, StatusSent,
		StatusNegotiating, StatusAccepted, StatusDeclined, StatusProcessed,
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusTable[s]
	return ok
}

// Valid reports whether e is a known entry type.
func (e EntryType) Valid() bool {
	switch e {
	case EntryInternalQuote, EntryCustomerFeedback, EntryCounterOffer:
		return true
	}
	return false
}

// NormalizeStatus upper-cases and trims v without checking it is known.
func NormalizeStatus(v string) Status {
	return Status(strings.ToUpper(strings.TrimSpace(v)))
}

// ParseStatus accepts a status in any letter case.
func ParseStatus(v string) (Status, error) {
	s := NormalizeStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", v)
	}
	return s, nil
}

// UnmarshalText decodes a status in any letter case. Unknown values decode as given
// (upper-cased) so callers can report them as validation failures.
func (s *Status) UnmarshalText(b []byte) error {
	*s = NormalizeStatus(string(b))
	return nil
}

// UnmarshalText decodes an entry type in any letter case. Unknown values are kept for
// validation to reject.
func (e *EntryType) UnmarshalText(b []byte) error {
	*e = EntryType(strings.ToLower(strings.TrimSpace(string(b))))
	return nil
}

// NextRfqStatus returns the RFQ status after a version of the given entry type is created.
// Combinations without a rule leave the status unchanged.
func NextRfqStatus(current Status, entry EntryType) Status {
	for _, t := range entryTransitions {
		if t.Entry != entry {
			continue
		}
		if t.From == "" || t.From == current {
			return t.To
		}
	}
	return current
}

// CanCreateVersion reports whether a new quotation version may be entered in status s.
func CanCreateVersion(s Status) bool {
	return statusTable[s].editable
}

// CanEditItems reports whether line items may still change in status s.
func CanEditItems(s Status) bool {
	return statusTable[s].editable
}

// NextPossibleStatuses returns the statuses reachable from s by a manual transition.
// The returned slice is a copy.
func NextPossibleStatuses(s Status) []Status {
	next := statusTable[s].next
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether a manual transition from -> to is declared.
func CanTransition(from, to Status) bool {
	for _, s := range statusTable[from].next {
		if s == to {
			return true
		}
	}
	return false
}

// RulesFor summarises the rules for status s.
func RulesFor(s Status) Rules {
	return Rules{
		Status:               s,
		CanCreateVersion:     CanCreateVersion(s),
		CanEdit:              CanEditItems(s),
		NextPossibleStatuses: NextPossibleStatuses(s),
	}
}
