package reconciler

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/ddns6/pkg/provider"
)

// Outcome classifies how a tick ended.
type Outcome string

const (
	// OutcomeFetchFailed means the provider record list could not be read.
	OutcomeFetchFailed Outcome = "fetch_failed"
	// OutcomeSourceFailed means the local address table could not be read.
	OutcomeSourceFailed Outcome = "source_failed"
	// OutcomeNoRecord means the zone holds no AAAA record to update.
	OutcomeNoRecord Outcome = "no_record"
	// OutcomeNoAddress means the interface has no global IPv6 address.
	OutcomeNoAddress Outcome = "no_address"
	// OutcomeInSync means the published address already matches.
	OutcomeInSync Outcome = "in_sync"
	// OutcomeUpdated means every AAAA record was rewritten (or would be in dry-run).
	OutcomeUpdated Outcome = "updated"
	// OutcomeUpdateFailed means at least one record update failed.
	OutcomeUpdateFailed Outcome = "update_failed"
)

// Succeeded reports whether the published record matches the local address
// after the tick.
func (o Outcome) Succeeded() bool {
	return o == OutcomeInSync || o == OutcomeUpdated
}

// ActionStatus represents the outcome of an action.
type ActionStatus string

const (
	// StatusSuccess indicates the record was rewritten.
	StatusSuccess ActionStatus = "success"
	// StatusFailed indicates the provider rejected or never received the update.
	StatusFailed ActionStatus = "failed"
	// StatusSkipped indicates the update was only planned (dry-run).
	StatusSkipped ActionStatus = "skipped"
)

// Action is one record update attempted during a tick.
type Action struct {
	Provider string
	RecordID int64
	Name     string // subdomain, "@" for the apex
	Line     string
	OldValue string
	NewValue string
	Status   ActionStatus
	Error    string
	DryRun   bool
}

// String returns a human-readable representation of the action.
func (a Action) String() string {
	status := string(a.Status)
	if a.DryRun {
		status = "dry-run"
	}

	s := fmt.Sprintf("[%s] record %d %s (%s): %s -> %s (%s)",
		status, a.RecordID, a.Name, a.Line, a.OldValue, a.NewValue, a.Provider)
	if a.Error != "" {
		s += ": " + a.Error
	}
	return s
}

// Result holds the complete result of one tick.
type Result struct {
	// RunID correlates the log lines of one tick.
	RunID string

	StartTime time.Time
	EndTime   time.Time

	Outcome Outcome

	// Records are the AAAA records the provider holds for the zone.
	Records []provider.Record

	// Addresses are the global addresses found on the interface, in table order.
	Addresses []netip.Addr

	// Published is the first record's value, canonicalised when it parses.
	Published string

	// Desired is the first local address.
	Desired string

	// Actions contains every update attempted (or planned in dry-run).
	Actions []Action

	// DryRun indicates no changes were applied.
	DryRun bool

	// Err is the tick-level error for fetch_failed, source_failed and update_failed.
	Err error
}

// NewResult creates a new Result started at now.
func NewResult(runID string, dryRun bool, now time.Time) *Result {
	return &Result{
		RunID:     runID,
		StartTime: now,
		DryRun:    dryRun,
	}
}

// Complete records the end time.
func (r *Result) Complete(now time.Time) {
	r.EndTime = now
}

// Duration returns the tick duration.
func (r *Result) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// AddAction adds an action to the result.
func (r *Result) AddAction(action Action) {
	action.DryRun = r.DryRun
	r.Actions = append(r.Actions, action)
}

func (r *Result) filterActions(status ActionStatus) []Action {
	var filtered []Action
	for _, a := range r.Actions {
		if a.Status == status {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// Updated returns all successful updates.
func (r *Result) Updated() []Action {
	return r.filterActions(StatusSuccess)
}

// Failed returns all failed updates.
func (r *Result) Failed() []Action {
	return r.filterActions(StatusFailed)
}

// Skipped returns all planned-only updates.
func (r *Result) Skipped() []Action {
	return r.filterActions(StatusSkipped)
}

// HasErrors returns true if any update failed.
func (r *Result) HasErrors() bool {
	return len(r.Failed()) > 0
}

// Summary returns a human-readable summary of the tick.
func (r *Result) Summary() string {
	var sb strings.Builder

	mode := "applied"
	if r.DryRun {
		mode = "dry-run"
	}

	fmt.Fprintf(&sb, "Reconciliation %s (%s) in %s\n", r.Outcome, mode, r.Duration().Round(time.Millisecond))
	fmt.Fprintf(&sb, "  AAAA records: %d\n", len(r.Records))
	fmt.Fprintf(&sb, "  Local addresses: %d\n", len(r.Addresses))
	if r.Published != "" || r.Desired != "" {
		fmt.Fprintf(&sb, "  Published: %s\n", r.Published)
		fmt.Fprintf(&sb, "  Desired: %s\n", r.Desired)
	}
	fmt.Fprintf(&sb, "  Updated: %d\n", len(r.Updated()))
	fmt.Fprintf(&sb, "  Skipped: %d\n", len(r.Skipped()))

	if r.HasErrors() {
		fmt.Fprintf(&sb, "  Failed: %d\n", len(r.Failed()))
		for _, a := range r.Failed() {
			fmt.Fprintf(&sb, "    - %s\n", a.String())
		}
	}
	if r.Err != nil {
		fmt.Fprintf(&sb, "  Error: %s\n", r.Err)
	}

	return sb.String()
}
