package service

import (
	"context"
	"sync"
	"time"

	"invoicedesk/internal/ksef"
	"invoicedesk/internal/model"
	"invoicedesk/internal/repository"
	"invoicedesk/internal/websocket"

	"github.com/google/uuid"
)

type fakeTx struct{}

func (fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type auditEntry struct {
	action   string
	entityID string
	details  any
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *fakeAudit) Record(_ context.Context, _ *uuid.UUID, action, _, entityID string, details any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{action: action, entityID: entityID, details: details})
}

func (a *fakeAudit) History(context.Context, string, string) ([]AuditLogResponse, error) {
	return nil, nil
}

func (a *fakeAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.action)
	}
	return out
}

type fakeCompanyRepo struct {
	companies map[uuid.UUID]*model.Company
	access    map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{
		companies: map[uuid.UUID]*model.Company{},
		access:    map[uuid.UUID]map[uuid.UUID]bool{},
	}
}

func (r *fakeCompanyRepo) add(c *model.Company, users ...uuid.UUID) {
	r.companies[c.ID] = c
	for _, u := range users {
		if r.access[u] == nil {
			r.access[u] = map[uuid.UUID]bool{}
		}
		r.access[u][c.ID] = true
	}
}

func (r *fakeCompanyRepo) Create(_ context.Context, c *model.Company) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.companies[c.ID] = c
	return nil
}

func (r *fakeCompanyRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Company, error) {
	c, ok := r.companies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (r *fakeCompanyRepo) FindByNIP(_ context.Context, nip string) (*model.Company, error) {
	for _, c := range r.companies {
		if c.NIP == nip {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCompanyRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]model.Company, error) {
	var out []model.Company
	for id := range r.access[userID] {
		out = append(out, *r.companies[id])
	}
	return out, nil
}

func (r *fakeCompanyRepo) GrantAccess(_ context.Context, link *model.UserCompany) error {
	if r.access[link.UserID] == nil {
		r.access[link.UserID] = map[uuid.UUID]bool{}
	}
	r.access[link.UserID][link.CompanyID] = true
	return nil
}

func (r *fakeCompanyRepo) HasAccess(_ context.Context, userID, companyID uuid.UUID) (bool, error) {
	return r.access[userID][companyID], nil
}

type fakeInvoiceRepo struct {
	mu        sync.Mutex
	invoices  map[uuid.UUID]*model.Invoice
	companies *fakeCompanyRepo
	updates   []repository.KSeFUpdate
	lastList  repository.InvoiceListFilter
	sum       repository.VATAggregate
	sumArgs   struct {
		from, to time.Time
		statuses []string
	}
}

func newFakeInvoiceRepo(companies *fakeCompanyRepo) *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: map[uuid.UUID]*model.Invoice{}, companies: companies}
}

func (r *fakeInvoiceRepo) Create(_ context.Context, inv *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	inv.CreatedAt = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	r.invoices[inv.ID] = inv
	return nil
}

func (r *fakeInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInvoiceRepo) FindByIDWithCompany(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.companies != nil {
		inv.Company = r.companies.companies[inv.CompanyID]
	}
	return inv, nil
}

func (r *fakeInvoiceRepo) List(_ context.Context, filter repository.InvoiceListFilter) ([]model.Invoice, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastList = filter
	var out []model.Invoice
	for _, inv := range r.invoices {
		for _, cid := range filter.CompanyIDs {
			if inv.CompanyID == cid {
				out = append(out, *inv)
			}
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeInvoiceRepo) NumberExists(_ context.Context, companyID uuid.UUID, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.CompanyID == companyID && inv.InvoiceNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInvoiceRepo) UpdateKSeF(_ context.Context, id uuid.UUID, u repository.KSeFUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.updates = append(r.updates, u)
	inv.KSeFStatus = u.Status
	inv.KSeFNumber = u.KSeFNumber
	inv.UPO = u.UPO
	inv.KSeFError = u.Error
	if u.SubmittedAt != nil {
		inv.SubmittedAt = u.SubmittedAt
	}
	return nil
}

func (r *fakeInvoiceRepo) SumVAT(_ context.Context, _ uuid.UUID, from, to time.Time, statuses []string) (repository.VATAggregate, error) {
	r.sumArgs.from, r.sumArgs.to, r.sumArgs.statuses = from, to, statuses
	return r.sum, nil
}

func (r *fakeInvoiceRepo) PendingIDs(_ context.Context, limit int) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for id, inv := range r.invoices {
		if inv.KSeFStatus == model.KSeFPending && len(ids) < limit {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeInvoiceRepo) get(id uuid.UUID) model.Invoice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.invoices[id]
}

type fakeQueue struct {
	ids []uuid.UUID
	err error
}

func (q *fakeQueue) Enqueue(id uuid.UUID) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

func (q *fakeQueue) Depth() int    { return len(q.ids) }
func (q *fakeQueue) Capacity() int { return 100 }

type fakePublisher struct {
	mu     sync.Mutex
	events []websocket.InvoiceEvent
}

func (p *fakePublisher) Publish(e websocket.InvoiceEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *fakePublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Status)
	}
	return out
}

type fakeGateway struct {
	result ksef.Result
	err    error
	got    []ksef.Submission
}

func (g *fakeGateway) Mode() string { return "fake" }

func (g *fakeGateway) Submit(_ context.Context, sub ksef.Submission) (ksef.Result, error) {
	g.got = append(g.got, sub)
	return g.result, g.err
}

type fakeUserRepo struct {
	users map[string]*model.User
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if r.users == nil {
		r.users = map[string]*model.User{}
	}
	u.ID = uuid.New()
	r.users[u.Email] = u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range r.users {
		if u.ID.String() == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := r.users[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}
