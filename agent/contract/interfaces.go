package contract

import "context"

// Classifier is the natural-language fallback used when the rule cascade is
// inconclusive. Implementations may fail; callers must degrade gracefully.
type Classifier interface {
	Classify(ctx context.Context, text string) (ClassifierResult, error)
}

// Directory is the customer directory collaborator. The pipeline only depends
// on this contract, never on a concrete storage engine.
type Directory interface {
	GetCustomer(ctx context.Context, id int64) (Customer, error)
	ListCustomers(ctx context.Context, status string, limit int) ([]Customer, error)
	UpdateCustomer(ctx context.Context, id int64, patch CustomerPatch) (Customer, error)
	CreateTicket(ctx context.Context, customerID int64, issue string, priority Priority) (Ticket, error)
	GetCustomerHistory(ctx context.Context, id int64) (CustomerHistory, error)
}
