package contract

// Intent is the closed classification of what the user wants. It drives both
// the route decision and the resolution branch.
type Intent string

const (
	IntentSimpleLookup          Intent = "simple_lookup"
	IntentUpgrade               Intent = "upgrade"
	IntentBillingIssue          Intent = "billing_issue"
	IntentActiveWithOpenTickets Intent = "active_with_open_tickets"
	IntentUpdateAndHistory      Intent = "update_and_history"
	IntentGeneralSupport        Intent = "general_support"
)

// IntentNames lists the intents the fallback classifier may choose from,
// in the order they are presented in the classifier prompt.
func IntentNames() []string {
	return []string{
		string(IntentSimpleLookup),
		string(IntentUpgrade),
		string(IntentBillingIssue),
		string(IntentActiveWithOpenTickets),
		string(IntentUpdateAndHistory),
		string(IntentGeneralSupport),
	}
}

type Urgency string

const (
	UrgencyHigh Urgency = "high"
	UrgencyLow  Urgency = "low"
)

// Route decides whether context enrichment runs before resolution.
type Route string

const (
	RouteDataThenSupport Route = "data_then_support"
	RouteSupportOnly     Route = "support_only"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "closed"
)

type Customer struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Status string `json:"status"`
}

type Ticket struct {
	ID         int64        `json:"id"`
	CustomerID int64        `json:"customer_id"`
	Status     TicketStatus `json:"status"`
	Priority   Priority     `json:"priority"`
	Issue      string       `json:"issue"`
}

// CustomerHistory is the combined lookup used by the context fetcher.
// Customer is nil when the id is unknown; that is not an error at fetch time.
type CustomerHistory struct {
	Customer *Customer `json:"customer,omitempty"`
	Tickets  []Ticket  `json:"tickets"`
}

// CustomerPatch carries the fields of a partial customer update. Nil fields
// are left untouched.
type CustomerPatch struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Status *string `json:"status,omitempty"`
}

// ClassifierResult is the structured output of the fallback classifier.
// Only the intent field participates in routing; urgency is always re-derived
// from the raw text by the rule scan.
type ClassifierResult struct {
	Intent  Intent  `json:"intent"`
	Urgency Urgency `json:"urgency"`
}
