// Package support turns a classified, context-enriched conversation into a
// user-facing response, performing any required directory side effects
// (ticket creation, record update) along the way.
package support

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	contractx "github.com/supportops/triage-pipeline/agent/contract"
	statex "github.com/supportops/triage-pipeline/agent/state"
)

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

type Engine struct {
	directory contractx.Directory
}

func NewEngine(directory contractx.Directory) (*Engine, error) {
	if directory == nil {
		return nil, errors.New("directory client is required")
	}
	return &Engine{directory: directory}, nil
}

// Resolve dispatches on the conversation's intent. Every branch appends
// exactly one audit entry and sets Response; missing customer context is
// answered with a plain-language request for more information, never an error.
func (e *Engine) Resolve(ctx context.Context, in statex.Conversation) (statex.Conversation, error) {
	query := in.LastUserMessage()

	switch {
	case in.Intent == contractx.IntentSimpleLookup:
		return resolveLookup(in), nil
	case in.Intent == contractx.IntentUpgrade:
		return resolveUpgrade(in), nil
	case in.Intent == contractx.IntentBillingIssue:
		return e.resolveBilling(ctx, in, query)
	case in.Intent == contractx.IntentActiveWithOpenTickets && in.Roster != nil:
		return e.resolveTicketReport(ctx, in)
	case in.Intent == contractx.IntentUpdateAndHistory:
		return e.resolveUpdateAndHistory(ctx, in, query)
	default:
		return resolveGeneral(in), nil
	}
}

func resolveLookup(in statex.Conversation) statex.Conversation {
	out := in
	if out.Snapshot == nil {
		out.Response = "I could not find that customer. Please double check the ID."
		return out.WithAudit("[support] simple lookup but customer not found")
	}

	c := out.Snapshot
	out.Response = fmt.Sprintf(
		"Customer %d: %s\nEmail: %s\nPhone: %s\nStatus: %s",
		c.ID, c.Name, c.Email, c.Phone, c.Status,
	)
	return out.WithAudit("[support] handled simple lookup")
}

func resolveUpgrade(in statex.Conversation) statex.Conversation {
	out := in
	if out.Snapshot == nil {
		out.Response = "I could not find your account. Please provide a valid customer ID."
		return out.WithAudit("[support] upgrade intent but customer not found")
	}

	c := out.Snapshot
	out.Response = fmt.Sprintf(
		"Hi %s, I can help you upgrade your account. I will use the email on file (%s) to send a confirmation.",
		c.Name, c.Email,
	)
	return out.WithAudit("[support] handled upgrade flow")
}

func (e *Engine) resolveBilling(ctx context.Context, in statex.Conversation, query string) (statex.Conversation, error) {
	out := in
	if out.CustomerID == nil {
		out.Response = "I am sorry about the billing issue. Please provide your customer ID so that I can create a ticket and investigate."
		return out.WithAudit("[support] billing issue without customer id, no ticket created"), nil
	}

	priority := contractx.PriorityMedium
	if out.Urgency == contractx.UrgencyHigh {
		priority = contractx.PriorityHigh
	}

	created, err := e.directory.CreateTicket(ctx, *out.CustomerID, query, priority)
	if err != nil {
		return statex.Conversation{}, fmt.Errorf("create billing ticket: %w", err)
	}

	out.Response = fmt.Sprintf(
		"I am sorry about the billing issue. I have created a ticket #%d with priority %s. Our billing team will review your charge and process any refund that is due.",
		created.ID, created.Priority,
	)
	return out.WithAudit(fmt.Sprintf(
		"[support] created billing ticket #%d for customer_id=%d with priority=%s",
		created.ID, *out.CustomerID, created.Priority,
	)), nil
}

func (e *Engine) resolveTicketReport(ctx context.Context, in statex.Conversation) (statex.Conversation, error) {
	out := in

	// Report lines preserve roster order; the filter is an exact match on
	// both status and priority.
	var lines []string
	for _, c := range out.Roster {
		history, err := e.directory.GetCustomerHistory(ctx, c.ID)
		if err != nil {
			return statex.Conversation{}, fmt.Errorf("fetch history for customer %d: %w", c.ID, err)
		}

		count := 0
		for _, ticket := range history.Tickets {
			if ticket.Status == contractx.TicketStatusOpen && ticket.Priority == contractx.PriorityHigh {
				count++
			}
		}
		if count > 0 {
			lines = append(lines, fmt.Sprintf("- Customer %d (%s): %d high-priority ticket(s)", c.ID, c.Name, count))
		}
	}

	if len(lines) == 0 {
		out.Response = "There are no active customers with open high-priority tickets right now."
	} else {
		out.Response = "High priority ticket status for active customers:\n" + strings.Join(lines, "\n")
	}
	return out.WithAudit("[support] generated report for active customers with high priority tickets"), nil
}

func (e *Engine) resolveUpdateAndHistory(ctx context.Context, in statex.Conversation, query string) (statex.Conversation, error) {
	out := in

	email := emailPattern.FindString(query)
	if out.CustomerID == nil || email == "" {
		out.Response = "I could not find a valid email address to update."
		return out.WithAudit("[support] update requested but no valid email found"), nil
	}

	updated, err := e.directory.UpdateCustomer(ctx, *out.CustomerID, contractx.CustomerPatch{Email: &email})
	if err != nil {
		return statex.Conversation{}, fmt.Errorf("update customer email: %w", err)
	}

	// History is re-fetched after the update so the summary reflects the new
	// record, not the one captured during enrichment.
	history, err := e.directory.GetCustomerHistory(ctx, *out.CustomerID)
	if err != nil {
		return statex.Conversation{}, fmt.Errorf("refresh ticket history: %w", err)
	}

	body := "No tickets found."
	if len(history.Tickets) > 0 {
		ticketLines := make([]string, 0, len(history.Tickets))
		for _, ticket := range history.Tickets {
			ticketLines = append(ticketLines, fmt.Sprintf("- [%s] %s", ticket.Status, ticket.Issue))
		}
		body = strings.Join(ticketLines, "\n")
	}

	out.Response = fmt.Sprintf(
		"Updated email to %s for customer %s.\n\nTicket history (%d total):\n%s",
		updated.Email, updated.Name, len(history.Tickets), body,
	)
	return out.WithAudit(fmt.Sprintf("[support] updated email to %s and summarized ticket history", email)), nil
}

func resolveGeneral(in statex.Conversation) statex.Conversation {
	out := in
	out.Response = "I have logged your issue and will route it to the appropriate team."
	return out.WithAudit("[support] fallback general support")
}
