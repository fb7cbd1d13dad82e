package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	contractx "github.com/supportops/triage-pipeline/agent/contract"
)

// Memory is a thread-safe in-memory directory. It backs local demos and the
// test suites; the pipeline itself only sees the contract interface.
type Memory struct {
	mu           sync.RWMutex
	customers    map[int64]contractx.Customer
	tickets      map[int64][]contractx.Ticket
	nextTicketID int64
}

func NewMemory() *Memory {
	return &Memory{
		customers:    map[int64]contractx.Customer{},
		tickets:      map[int64][]contractx.Ticket{},
		nextTicketID: 1,
	}
}

// NewMemorySeeded returns an in-memory directory preloaded with a small
// customer base, enough to exercise every pipeline branch.
func NewMemorySeeded() *Memory {
	m := NewMemory()

	m.PutCustomer(contractx.Customer{ID: 1, Name: "Alice Johnson", Email: "alice@example.com", Phone: "555-0101", Status: "active"})
	m.PutCustomer(contractx.Customer{ID: 2, Name: "Bob Smith", Email: "bob@example.com", Phone: "555-0102", Status: "active"})
	m.PutCustomer(contractx.Customer{ID: 3, Name: "Carol Davis", Email: "carol@example.com", Phone: "555-0103", Status: "inactive"})

	m.PutTicket(contractx.Ticket{ID: 101, CustomerID: 1, Status: contractx.TicketStatusOpen, Priority: contractx.PriorityHigh, Issue: "Cannot access account"})
	m.PutTicket(contractx.Ticket{ID: 102, CustomerID: 1, Status: contractx.TicketStatusClosed, Priority: contractx.PriorityLow, Issue: "Question about features"})
	m.PutTicket(contractx.Ticket{ID: 103, CustomerID: 2, Status: contractx.TicketStatusOpen, Priority: contractx.PriorityMedium, Issue: "Billing question"})

	m.nextTicketID = 104
	return m
}

// PutCustomer inserts or replaces a customer record.
func (m *Memory) PutCustomer(c contractx.Customer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[c.ID] = c
}

// PutTicket inserts a ticket as-is, keeping the caller's id.
func (m *Memory) PutTicket(t contractx.Ticket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[t.CustomerID] = append(m.tickets[t.CustomerID], t)
	if t.ID >= m.nextTicketID {
		m.nextTicketID = t.ID + 1
	}
}

func (m *Memory) GetCustomer(ctx context.Context, id int64) (contractx.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.customers[id]
	if !ok {
		return contractx.Customer{}, fmt.Errorf("%w: id %d", contractx.ErrCustomerNotFound, id)
	}
	return c, nil
}

func (m *Memory) ListCustomers(ctx context.Context, status string, limit int) ([]contractx.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []contractx.Customer{}
	for _, c := range m.customers {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) UpdateCustomer(ctx context.Context, id int64, patch contractx.CustomerPatch) (contractx.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.customers[id]
	if !ok {
		return contractx.Customer{}, fmt.Errorf("%w: id %d", contractx.ErrCustomerNotFound, id)
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	m.customers[id] = c
	return c, nil
}

func (m *Memory) CreateTicket(ctx context.Context, customerID int64, issue string, priority contractx.Priority) (contractx.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := contractx.Ticket{
		ID:         m.nextTicketID,
		CustomerID: customerID,
		Status:     contractx.TicketStatusOpen,
		Priority:   priority,
		Issue:      issue,
	}
	m.nextTicketID++
	m.tickets[customerID] = append(m.tickets[customerID], t)
	return t, nil
}

func (m *Memory) GetCustomerHistory(ctx context.Context, id int64) (contractx.CustomerHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := contractx.CustomerHistory{}
	if c, ok := m.customers[id]; ok {
		history.Customer = &c
	}
	history.Tickets = append([]contractx.Ticket(nil), m.tickets[id]...)
	return history, nil
}
