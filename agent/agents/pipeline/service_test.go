package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	contractx "github.com/supportops/triage-pipeline/agent/contract"
	statex "github.com/supportops/triage-pipeline/agent/state"
)

type fakeDirectory struct {
	customers map[int64]contractx.Customer
	tickets   map[int64][]contractx.Ticket

	nextTicketID int64
	created      []contractx.Ticket
	callLog      []string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		customers:    map[int64]contractx.Customer{},
		tickets:      map[int64][]contractx.Ticket{},
		nextTicketID: 100,
	}
}

func (f *fakeDirectory) GetCustomer(ctx context.Context, id int64) (contractx.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return contractx.Customer{}, contractx.ErrCustomerNotFound
	}
	return c, nil
}

func (f *fakeDirectory) ListCustomers(ctx context.Context, status string, limit int) ([]contractx.Customer, error) {
	f.callLog = append(f.callLog, fmt.Sprintf("list:%s:%d", status, limit))
	var out []contractx.Customer
	for id := int64(1); id <= int64(len(f.customers))+10 && len(out) < limit; id++ {
		if c, ok := f.customers[id]; ok && c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeDirectory) UpdateCustomer(ctx context.Context, id int64, patch contractx.CustomerPatch) (contractx.Customer, error) {
	f.callLog = append(f.callLog, fmt.Sprintf("update:%d", id))
	c, ok := f.customers[id]
	if !ok {
		return contractx.Customer{}, contractx.ErrCustomerNotFound
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	f.customers[id] = c
	return c, nil
}

func (f *fakeDirectory) CreateTicket(ctx context.Context, customerID int64, issue string, priority contractx.Priority) (contractx.Ticket, error) {
	f.callLog = append(f.callLog, fmt.Sprintf("create_ticket:%d", customerID))
	t := contractx.Ticket{
		ID:         f.nextTicketID,
		CustomerID: customerID,
		Status:     contractx.TicketStatusOpen,
		Priority:   priority,
		Issue:      issue,
	}
	f.nextTicketID++
	f.tickets[customerID] = append(f.tickets[customerID], t)
	f.created = append(f.created, t)
	return t, nil
}

func (f *fakeDirectory) GetCustomerHistory(ctx context.Context, id int64) (contractx.CustomerHistory, error) {
	f.callLog = append(f.callLog, fmt.Sprintf("history:%d", id))
	history := contractx.CustomerHistory{Tickets: f.tickets[id]}
	if c, ok := f.customers[id]; ok {
		history.Customer = &c
	}
	return history, nil
}

type fakeClassifier struct {
	result contractx.ClassifierResult
	err    error
	calls  int
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (contractx.ClassifierResult, error) {
	f.calls++
	return f.result, f.err
}

func seedCustomerFive(dir *fakeDirectory) {
	dir.customers[5] = contractx.Customer{
		ID: 5, Name: "Eve Park", Email: "eve@example.com", Phone: "555-0105", Status: "active",
	}
	dir.tickets[5] = []contractx.Ticket{
		{ID: 51, CustomerID: 5, Status: contractx.TicketStatusClosed, Priority: contractx.PriorityLow, Issue: "password reset"},
	}
}

func TestRunSimpleLookup(t *testing.T) {
	t.Parallel()

	dir := newFakeDirectory()
	seedCustomerFive(dir)

	svc, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out, err := svc.HandleRequest(context.Background(), "I need help with my account, customer ID 5", nil)
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}

	if out.Intent != contractx.IntentSimpleLookup {
		t.Fatalf("Intent = %q, want simple_lookup", out.Intent)
	}
	if out.Route != contractx.RouteDataThenSupport {
		t.Fatalf("Route = %q, want data_then_support", out.Route)
	}
	if !strings.Contains(out.Response, "Customer 5: Eve Park") {
		t.Fatalf("Response = %q, want customer profile", out.Response)
	}
	// One user message in, three executed stages out.
	if len(out.Messages) != 4 {
		t.Fatalf("transcript length = %d, want 4", len(out.Messages))
	}
}

func TestRunBillingIssueCreatesHighPriorityTicket(t *testing.T) {
	t.Parallel()

	dir := newFakeDirectory()
	seedCustomerFive(dir)

	svc, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out, err := svc.HandleRequest(context.Background(),
		"I was charged twice and want a refund immediately, my customer ID is 5", nil)
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}

	if out.Intent != contractx.IntentBillingIssue {
		t.Fatalf("Intent = %q, want billing_issue", out.Intent)
	}
	if out.Urgency != contractx.UrgencyHigh {
		t.Fatalf("Urgency = %q, want high", out.Urgency)
	}
	if len(dir.created) != 1 {
		t.Fatalf("tickets created = %d, want 1", len(dir.created))
	}
	ticket := dir.created[0]
	if ticket.Priority != contractx.PriorityHigh {
		t.Fatalf("ticket priority = %q, want high", ticket.Priority)
	}
	if ticket.CustomerID != 5 {
		t.Fatalf("ticket customer = %d, want 5", ticket.CustomerID)
	}
	if !strings.Contains(out.Response, fmt.Sprintf("#%d", ticket.ID)) {
		t.Fatalf("Response = %q, want ticket id mention", out.Response)
	}
}

func TestRunUpdateEmailThenHistory(t *testing.T) {
	t.Parallel()

	dir := newFakeDirectory()
	seedCustomerFive(dir)

	svc, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out, err := svc.HandleRequest(context.Background(),
		"Please update my email to eve.park@newmail.com and show my ticket history, customer ID 5", nil)
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}

	if out.Intent != contractx.IntentUpdateAndHistory {
		t.Fatalf("Intent = %q, want update_and_history", out.Intent)
	}
	if got := dir.customers[5].Email; got != "eve.park@newmail.com" {
		t.Fatalf("stored email = %q, want update applied", got)
	}
	if !strings.Contains(out.Response, "Updated email to eve.park@newmail.com") {
		t.Fatalf("Response = %q, want update confirmation", out.Response)
	}
	if !strings.Contains(out.Response, "Ticket history (1 total)") {
		t.Fatalf("Response = %q, want ticket history summary", out.Response)
	}

	// The resolution-stage history call must come after the update so the
	// summary reflects the new record.
	var updateIdx, lastHistoryIdx int
	for i, call := range dir.callLog {
		switch call {
		case "update:5":
			updateIdx = i
		case "history:5":
			lastHistoryIdx = i
		}
	}
	if lastHistoryIdx < updateIdx {
		t.Fatalf("call order = %v, want history re-fetched after update", dir.callLog)
	}
}

func TestRunActiveTicketReport(t *testing.T) {
	t.Parallel()

	dir := newFakeDirectory()
	dir.customers[1] = contractx.Customer{ID: 1, Name: "Ada", Status: "active"}
	dir.customers[2] = contractx.Customer{ID: 2, Name: "Ben", Status: "inactive"}
	dir.customers[3] = contractx.Customer{ID: 3, Name: "Cleo", Status: "active"}
	dir.tickets[1] = []contractx.Ticket{
		{ID: 11, CustomerID: 1, Status: contractx.TicketStatusOpen, Priority: contractx.PriorityHigh, Issue: "outage"},
		{ID: 12, CustomerID: 1, Status: contractx.TicketStatusOpen, Priority: contractx.PriorityLow, Issue: "question"},
	}
	dir.tickets[3] = []contractx.Ticket{
		{ID: 31, CustomerID: 3, Status: contractx.TicketStatusClosed, Priority: contractx.PriorityHigh, Issue: "resolved"},
	}

	svc, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out, err := svc.HandleRequest(context.Background(),
		"Which active customers have open tickets with high priority?", nil)
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}

	if out.Intent != contractx.IntentActiveWithOpenTickets {
		t.Fatalf("Intent = %q, want active_with_open_tickets", out.Intent)
	}
	if !strings.Contains(out.Response, "Customer 1 (Ada): 1 high-priority ticket(s)") {
		t.Fatalf("Response = %q, want Ada's open high ticket", out.Response)
	}
	if strings.Contains(out.Response, "Ben") {
		t.Fatalf("Response = %q, inactive customer leaked into report", out.Response)
	}
	if strings.Contains(out.Response, "Cleo") {
		t.Fatalf("Response = %q, closed ticket counted", out.Response)
	}
	if want := "list:active:100"; dir.callLog[0] != want {
		t.Fatalf("first directory call = %q, want %q", dir.callLog[0], want)
	}
}

func TestRunChitChatSkipsEnrichment(t *testing.T) {
	t.Parallel()

	dir := newFakeDirectory()

	svc, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out, err := svc.HandleRequest(context.Background(), "hello there, how are you?", nil)
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}

	if out.Intent != contractx.IntentGeneralSupport {
		t.Fatalf("Intent = %q, want general_support", out.Intent)
	}
	if out.Route != contractx.RouteSupportOnly {
		t.Fatalf("Route = %q, want support_only", out.Route)
	}
	if len(dir.callLog) != 0 {
		t.Fatalf("directory calls = %v, want none on the support-only route", dir.callLog)
	}
	if out.Response != "I have logged your issue and will route it to the appropriate team." {
		t.Fatalf("Response = %q", out.Response)
	}
	// One user message in, two executed stages out.
	if len(out.Messages) != 3 {
		t.Fatalf("transcript length = %d, want 3", len(out.Messages))
	}
}

func TestRunFallbackClassifierDrivesRoute(t *testing.T) {
	t.Parallel()

	dir := newFakeDirectory()
	seedCustomerFive(dir)
	fallback := &fakeClassifier{
		result: contractx.ClassifierResult{Intent: contractx.IntentUpgrade, Urgency: contractx.UrgencyLow},
	}

	svc, err := New(dir, fallback)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out, err := svc.HandleRequest(context.Background(),
		"I want the bigger plan please, customer id 5", nil)
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}

	if fallback.calls != 1 {
		t.Fatalf("fallback calls = %d, want 1", fallback.calls)
	}
	if out.Intent != contractx.IntentUpgrade {
		t.Fatalf("Intent = %q, want upgrade from fallback", out.Intent)
	}
	if !strings.Contains(out.Response, "Hi Eve Park") {
		t.Fatalf("Response = %q, want upgrade flow with profile", out.Response)
	}
}

func TestRunFallbackClassifierErrorDegrades(t *testing.T) {
	t.Parallel()

	dir := newFakeDirectory()
	fallback := &fakeClassifier{err: errors.New("model timeout")}

	svc, err := New(dir, fallback)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out, err := svc.HandleRequest(context.Background(), "what's your favourite colour?", nil)
	if err != nil {
		t.Fatalf("HandleRequest() error = %v, classifier failures must not surface", err)
	}
	if out.Intent != contractx.IntentGeneralSupport {
		t.Fatalf("Intent = %q, want general_support degradation", out.Intent)
	}
	if out.Response == "" {
		t.Fatal("Response is empty after degradation")
	}
}

func TestRunEmptyMessageRejected(t *testing.T) {
	t.Parallel()

	svc, err := New(newFakeDirectory(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := svc.HandleRequest(context.Background(), "   ", nil); err == nil {
		t.Fatal("HandleRequest(blank) succeeded, want validation error")
	}
}

func TestRunDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	svc, err := New(newFakeDirectory(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := statex.New("hello support", nil)
	before := len(in.Messages)

	if _, err := svc.Run(context.Background(), in); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(in.Messages) != before || in.Response != "" || in.Intent != "" {
		t.Fatalf("input conversation mutated: %+v", in)
	}
}

func TestNewRequiresDirectory(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, nil); err == nil {
		t.Fatal("New(nil directory) succeeded")
	}
}
