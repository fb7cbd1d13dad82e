package pipelinenode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/supportops/triage-pipeline/agent/contract"
	statex "github.com/supportops/triage-pipeline/agent/state"
)

// activeRosterLimit caps the roster fetched for report-style intents.
const activeRosterLimit = 100

// FetchContext runs the enrichment stage. A customer id triggers the combined
// profile+history lookup; the report intent additionally pulls the bounded
// active roster. A missing customer is not an error here — the snapshot stays
// absent and resolution decides what to tell the user.
func FetchContext(
	ctx context.Context,
	in statex.Conversation,
	directory contractx.Directory,
) (statex.Conversation, error) {
	out := in
	var fetched []string

	if out.CustomerID != nil {
		history, err := directory.GetCustomerHistory(ctx, *out.CustomerID)
		if err != nil {
			return statex.Conversation{}, fmt.Errorf("fetch customer history: %w", err)
		}
		out.Snapshot = history.Customer
		out.Tickets = history.Tickets
		fetched = append(fetched, fmt.Sprintf(
			"fetched history for customer_id=%d (tickets=%d)",
			*out.CustomerID, len(history.Tickets),
		))
	}

	if out.Intent == contractx.IntentActiveWithOpenTickets {
		roster, err := directory.ListCustomers(ctx, "active", activeRosterLimit)
		if err != nil {
			return statex.Conversation{}, fmt.Errorf("list active customers: %w", err)
		}
		if roster == nil {
			roster = []contractx.Customer{}
		}
		out.Roster = roster
		fetched = append(fetched, fmt.Sprintf("listed active customers for report (count=%d)", len(roster)))
	}

	note := "no data fetch needed"
	if len(fetched) > 0 {
		note = strings.Join(fetched, "; ")
	}
	return out.WithAudit("[data] " + note), nil
}
