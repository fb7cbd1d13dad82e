package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	contractx "github.com/supportops/triage-pipeline/agent/contract"
)

type customerRow struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID     int64  `bun:"id,pk,autoincrement"`
	Name   string `bun:"name,notnull"`
	Email  string `bun:"email,notnull"`
	Phone  string `bun:"phone"`
	Status string `bun:"status,notnull"`
}

type ticketRow struct {
	bun.BaseModel `bun:"table:tickets,alias:t"`

	ID         int64  `bun:"id,pk,autoincrement"`
	CustomerID int64  `bun:"customer_id,notnull"`
	Status     string `bun:"status,notnull"`
	Priority   string `bun:"priority,notnull"`
	Issue      string `bun:"issue,notnull"`
}

// Postgres implements the directory contract on top of bun.
type Postgres struct {
	db *bun.DB
}

func NewPostgres(db *bun.DB) (*Postgres, error) {
	if db == nil {
		return nil, errors.New("bun db handle is required")
	}
	return &Postgres{db: db}, nil
}

// InitSchema creates the customers and tickets tables when absent. Intended
// for local setups; production schemas are managed externally.
func (p *Postgres) InitSchema(ctx context.Context) error {
	for _, model := range []any{(*customerRow)(nil), (*ticketRow)(nil)} {
		if _, err := p.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

func (p *Postgres) GetCustomer(ctx context.Context, id int64) (contractx.Customer, error) {
	var row customerRow
	err := p.db.NewSelect().Model(&row).Where("c.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return contractx.Customer{}, fmt.Errorf("%w: id %d", contractx.ErrCustomerNotFound, id)
	}
	if err != nil {
		return contractx.Customer{}, fmt.Errorf("select customer %d: %w", id, err)
	}
	return row.toCustomer(), nil
}

func (p *Postgres) ListCustomers(ctx context.Context, status string, limit int) ([]contractx.Customer, error) {
	var rows []customerRow
	q := p.db.NewSelect().Model(&rows).Order("c.id ASC")
	if status != "" {
		q = q.Where("c.status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	out := make([]contractx.Customer, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toCustomer())
	}
	return out, nil
}

func (p *Postgres) UpdateCustomer(ctx context.Context, id int64, patch contractx.CustomerPatch) (contractx.Customer, error) {
	q := p.db.NewUpdate().Model((*customerRow)(nil)).Where("id = ?", id)

	touched := false
	if patch.Name != nil {
		q = q.Set("name = ?", *patch.Name)
		touched = true
	}
	if patch.Email != nil {
		q = q.Set("email = ?", *patch.Email)
		touched = true
	}
	if patch.Phone != nil {
		q = q.Set("phone = ?", *patch.Phone)
		touched = true
	}
	if patch.Status != nil {
		q = q.Set("status = ?", *patch.Status)
		touched = true
	}

	if touched {
		res, err := q.Exec(ctx)
		if err != nil {
			return contractx.Customer{}, fmt.Errorf("update customer %d: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return contractx.Customer{}, fmt.Errorf("%w: id %d", contractx.ErrCustomerNotFound, id)
		}
	}

	return p.GetCustomer(ctx, id)
}

func (p *Postgres) CreateTicket(ctx context.Context, customerID int64, issue string, priority contractx.Priority) (contractx.Ticket, error) {
	row := ticketRow{
		CustomerID: customerID,
		Status:     string(contractx.TicketStatusOpen),
		Priority:   string(priority),
		Issue:      issue,
	}
	if _, err := p.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return contractx.Ticket{}, fmt.Errorf("insert ticket for customer %d: %w", customerID, err)
	}
	return row.toTicket(), nil
}

func (p *Postgres) GetCustomerHistory(ctx context.Context, id int64) (contractx.CustomerHistory, error) {
	history := contractx.CustomerHistory{}

	customer, err := p.GetCustomer(ctx, id)
	switch {
	case errors.Is(err, contractx.ErrCustomerNotFound):
		// History of an unknown customer is empty, not an error.
	case err != nil:
		return contractx.CustomerHistory{}, err
	default:
		history.Customer = &customer
	}

	var rows []ticketRow
	if err := p.db.NewSelect().Model(&rows).Where("t.customer_id = ?", id).Order("t.id ASC").Scan(ctx); err != nil {
		return contractx.CustomerHistory{}, fmt.Errorf("list tickets for customer %d: %w", id, err)
	}
	for _, row := range rows {
		history.Tickets = append(history.Tickets, row.toTicket())
	}
	return history, nil
}

func (r customerRow) toCustomer() contractx.Customer {
	return contractx.Customer{
		ID:     r.ID,
		Name:   r.Name,
		Email:  r.Email,
		Phone:  r.Phone,
		Status: r.Status,
	}
}

func (r ticketRow) toTicket() contractx.Ticket {
	return contractx.Ticket{
		ID:         r.ID,
		CustomerID: r.CustomerID,
		Status:     contractx.TicketStatus(r.Status),
		Priority:   contractx.Priority(r.Priority),
		Issue:      r.Issue,
	}
}
