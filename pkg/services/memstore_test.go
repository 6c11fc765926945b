package services

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/rfqportal/pkg/apperrors"
	"github.com/ekaya-inc/rfqportal/pkg/models"
	"github.com/ekaya-inc/rfqportal/pkg/repositories"
)

// memStore is an in-memory stand-in for the database shared by the mock
// repositories below. fakeUnitOfWork snapshots it to emulate rollback.
type memStore struct {
	mu        sync.Mutex
	rfqs      map[uuid.UUID]models.RFQ
	suppliers map[string]models.Supplier
	quotes    map[uuid.UUID]models.Quote
	emails    []models.Email

	createQuoteErr error
	createEmailErr error
}

func newMemStore() *memStore {
	return &memStore{
		rfqs:      make(map[uuid.UUID]models.RFQ),
		suppliers: make(map[string]models.Supplier),
		quotes:    make(map[uuid.UUID]models.Quote),
	}
}

type memSnapshot struct {
	rfqs      map[uuid.UUID]models.RFQ
	suppliers map[string]models.Supplier
	quotes    map[uuid.UUID]models.Quote
	emails    []models.Email
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		rfqs:      make(map[uuid.UUID]models.RFQ, len(s.rfqs)),
		suppliers: make(map[string]models.Supplier, len(s.suppliers)),
		quotes:    make(map[uuid.UUID]models.Quote, len(s.quotes)),
		emails:    append([]models.Email(nil), s.emails...),
	}
	for k, v := range s.rfqs {
		snap.rfqs[k] = v
	}
	for k, v := range s.suppliers {
		snap.suppliers[k] = v
	}
	for k, v := range s.quotes {
		snap.quotes[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rfqs = snap.rfqs
	s.suppliers = snap.suppliers
	s.quotes = snap.quotes
	s.emails = snap.emails
}

func (s *memStore) addRFQ(item string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.rfqs[id] = models.RFQ{ID: id, Item: item, CreatedAt: time.Now()}
	return id
}

func (s *memStore) counts() (suppliers, quotes, emails int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.suppliers), len(s.quotes), len(s.emails)
}

// fakeUnitOfWork runs fn directly and restores the store when it fails.
type fakeUnitOfWork struct {
	store *memStore
	calls atomic.Int32
}

func (u *fakeUnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	u.calls.Add(1)
	snap := u.store.snapshot()
	if err := fn(ctx); err != nil {
		u.store.restore(snap)
		return err
	}
	return nil
}

// noopScopes satisfies ScopeProvider without a database.
type noopScopes struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (n *noopScopes) WithScope(ctx context.Context) (context.Context, func(), error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.err != nil {
		return nil, nil, n.err
	}
	return ctx, func() {}, nil
}

type memRFQRepo struct{ s *memStore }

var _ repositories.RFQRepository = (*memRFQRepo)(nil)

func (r *memRFQRepo) Create(ctx context.Context, rfq *models.RFQ) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rfq.ID == uuid.Nil {
		rfq.ID = uuid.New()
	}
	rfq.CreatedAt = time.Now()
	rfq.UpdatedAt = rfq.CreatedAt
	r.s.rfqs[rfq.ID] = *rfq
	return nil
}

func (r *memRFQRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.RFQ, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rfq, ok := r.s.rfqs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &rfq, nil
}

func (r *memRFQRepo) List(ctx context.Context) ([]*models.RFQ, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.RFQ, 0, len(r.s.rfqs))
	for _, rfq := range r.s.rfqs {
		rfq := rfq
		out = append(out, &rfq)
	}
	return out, nil
}

func (r *memRFQRepo) Update(ctx context.Context, rfq *models.RFQ) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rfqs[rfq.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.s.rfqs[rfq.ID] = *rfq
	return nil
}

func (r *memRFQRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rfqs[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.s.rfqs, id)
	return nil
}

type memSupplierRepo struct{ s *memStore }

var _ repositories.SupplierRepository = (*memSupplierRepo)(nil)

func (r *memSupplierRepo) GetOrCreate(ctx context.Context, candidate *models.Supplier) (*models.Supplier, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.suppliers[candidate.CompanyName]; ok {
		return &existing, false, nil
	}
	created := *candidate
	created.CreatedAt = time.Now()
	r.s.suppliers[created.CompanyName] = created
	return &created, true, nil
}

func (r *memSupplierRepo) Create(ctx context.Context, supplier *models.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.suppliers[supplier.CompanyName]; ok {
		return apperrors.ErrConflict
	}
	r.s.suppliers[supplier.CompanyName] = *supplier
	return nil
}

func (r *memSupplierRepo) GetByName(ctx context.Context, companyName string) (*models.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	supplier, ok := r.s.suppliers[companyName]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &supplier, nil
}

func (r *memSupplierRepo) List(ctx context.Context) ([]*models.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Supplier, 0, len(r.s.suppliers))
	for _, supplier := range r.s.suppliers {
		supplier := supplier
		out = append(out, &supplier)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyName < out[j].CompanyName })
	return out, nil
}

func (r *memSupplierRepo) Update(ctx context.Context, supplier *models.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.suppliers[supplier.CompanyName]; !ok {
		return apperrors.ErrNotFound
	}
	r.s.suppliers[supplier.CompanyName] = *supplier
	return nil
}

func (r *memSupplierRepo) Delete(ctx context.Context, companyName string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.suppliers[companyName]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.s.suppliers, companyName)
	return nil
}

type memQuoteRepo struct{ s *memStore }

var _ repositories.QuoteRepository = (*memQuoteRepo)(nil)

func (r *memQuoteRepo) Create(ctx context.Context, quote *models.Quote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createQuoteErr != nil {
		return r.s.createQuoteErr
	}
	if _, ok := r.s.rfqs[quote.RFQID]; !ok {
		return apperrors.ErrNotFound
	}
	if _, ok := r.s.suppliers[quote.SupplierCompanyName]; !ok {
		return apperrors.ErrNotFound
	}
	if quote.ID == uuid.Nil {
		quote.ID = uuid.New()
	}
	r.s.quotes[quote.ID] = *quote
	return nil
}

func (r *memQuoteRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	quote, ok := r.s.quotes[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &quote, nil
}

func (r *memQuoteRepo) GetWithSupplier(ctx context.Context, id uuid.UUID) (*models.QuoteWithSupplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	quote, ok := r.s.quotes[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	supplier := r.s.suppliers[quote.SupplierCompanyName]
	return &models.QuoteWithSupplier{Quote: quote, Supplier: &supplier}, nil
}

func (r *memQuoteRepo) ListByRFQ(ctx context.Context, rfqID uuid.UUID) ([]*models.QuoteWithSupplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.QuoteWithSupplier, 0)
	for _, quote := range r.s.quotes {
		if quote.RFQID != rfqID {
			continue
		}
		supplier := r.s.suppliers[quote.SupplierCompanyName]
		out = append(out, &models.QuoteWithSupplier{Quote: quote, Supplier: &supplier})
	}
	return out, nil
}

func (r *memQuoteRepo) Update(ctx context.Context, quote *models.Quote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.quotes[quote.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.s.quotes[quote.ID] = *quote
	return nil
}

func (r *memQuoteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.quotes[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.s.quotes, id)
	return nil
}

type memEmailRepo struct{ s *memStore }

var _ repositories.EmailRepository = (*memEmailRepo)(nil)

func (r *memEmailRepo) Create(ctx context.Context, email *models.Email) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createEmailErr != nil {
		return r.s.createEmailErr
	}
	if email.ID == uuid.Nil {
		email.ID = uuid.New()
	}
	r.s.emails = append(r.s.emails, *email)
	return nil
}

func (r *memEmailRepo) ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]*models.Email, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Email, 0)
	for _, email := range r.s.emails {
		if email.QuoteID != nil && *email.QuoteID == quoteID {
			email := email
			out = append(out, &email)
		}
	}
	return out, nil
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func int64Ptr(i int64) *int64     { return &i }
