// Package memory is a process-local ledger store used by STORE_DRIVER=memory
// and by service tests. Every operation can be made to fail through FailOn.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/repositories"
)

// Operation names accepted by FailOn.
const (
	OpGetActiveUser        = "GetActiveUser"
	OpGetUserByEmail       = "GetUserByEmail"
	OpCreateUser           = "CreateUser"
	OpDebitForBooking      = "DebitForBooking"
	OpRevertBookingDebit   = "RevertBookingDebit"
	OpCreditBalance        = "CreditBalance"
	OpGetActiveRoute       = "GetActiveRoute"
	OpReserveSeats         = "ReserveSeats"
	OpReleaseSeats         = "ReleaseSeats"
	OpCreateBooking        = "CreateBooking"
	OpDeleteBooking        = "DeleteBooking"
	OpGetUserBooking       = "GetUserBooking"
	OpUpdateBookingStatus  = "UpdateBookingStatus"
	OpCreateTransaction    = "CreateTransaction"
	OpRecordDiscrepancy    = "RecordDiscrepancy"
	OpResolveDiscrepancy   = "ResolveDiscrepancy"
	OpCompleteDeparted     = "CompleteDepartedBookings"
	OpListUserBookings     = "ListUserBookings"
	OpListUserTransactions = "ListUserTransactions"
)

type Store struct {
	mu sync.RWMutex

	users         map[int64]models.User
	routes        map[int64]models.Route
	bookings      map[int64]models.Booking
	transactions  []models.Transaction
	discrepancies map[int64]models.Discrepancy

	nextID int64
	faults map[string]error
	// beforeOp runs outside the lock before each named operation.
	beforeOp func(op string)
}

func NewStore() *Store {
	return &Store{
		users:         make(map[int64]models.User),
		routes:        make(map[int64]models.Route),
		bookings:      make(map[int64]models.Booking),
		discrepancies: make(map[int64]models.Discrepancy),
		faults:        make(map[string]error),
	}
}

// FailOn makes every call to op return err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// OnOperation registers a hook invoked before each operation, used by tests to
// interleave concurrent writers.
func (s *Store) OnOperation(fn func(op string)) {
	s.mu.Lock()
	s.beforeOp = fn
	s.mu.Unlock()
}

func (s *Store) enter(op string) error {
	s.mu.RLock()
	hook := s.beforeOp
	err := s.faults[op]
	s.mu.RUnlock()
	if hook != nil {
		hook(op)
	}
	return err
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// SeedUser stores u as-is and returns its id.
func (s *Store) SeedUser(u models.User) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	}
	s.users[u.ID] = u
	return u.ID
}

func (s *Store) SeedRoute(r models.Route) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.id()
	}
	s.routes[r.ID] = r
	return r.ID
}

// SeedDefaultRoutes loads the campus route catalog.
func (s *Store) SeedDefaultRoutes(seats int) {
	catalog := []struct {
		name, from, to, price, eta string
	}{
		{"Hostel to Library", "Hostel", "Library", "150", "15 mins"},
		{"Library to Faculty", "Library", "Faculty", "100", "10 mins"},
		{"Faculty to Main Gate", "Faculty", "Main Gate", "200", "20 mins"},
		{"Main Gate to Hostel", "Main Gate", "Hostel", "250", "25 mins"},
		{"Hostel to Faculty", "Hostel", "Faculty", "180", "18 mins"},
		{"Library to Main Gate", "Library", "Main Gate", "120", "12 mins"},
	}
	now := time.Now().UTC()
	for _, c := range catalog {
		s.SeedRoute(models.Route{
			RouteName:         c.name,
			DepartureLocation: c.from,
			ArrivalLocation:   c.to,
			Price:             decimal.RequireFromString(c.price),
			EstimatedTime:     c.eta,
			AvailableSeats:    seats,
			IsActive:          true,
			CreatedAt:         now,
		})
	}
}

// User returns a snapshot regardless of the active flag.
func (s *Store) User(id int64) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *Store) Route(id int64) (models.Route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.routes[id]
	return r, ok
}

func (s *Store) Bookings() []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Transactions() []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Transaction(nil), s.transactions...)
}

func (s *Store) Discrepancies() []models.Discrepancy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Discrepancy, 0, len(s.discrepancies))
	for _, d := range s.discrepancies {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- users

func (s *Store) GetActiveUser(ctx context.Context, id int64) (models.User, error) {
	if err := s.enter(OpGetActiveUser); err != nil {
		return models.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok || !u.IsActive {
		return models.User{}, repositories.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	if err := s.enter(OpGetUserByEmail); err != nil {
		return models.User{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *Store) UserExists(ctx context.Context, email, studentID string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	studentID = strings.TrimSpace(studentID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email || u.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.enter(OpCreateUser); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email || existing.StudentID == u.StudentID {
			return fmt.Errorf("%w: user %s", repositories.ErrDuplicate, u.Email)
		}
	}
	u.ID = s.id()
	u.Balance = decimal.Zero
	u.TotalSpent = decimal.Zero
	u.TotalRides = 0
	u.IsActive = true
	s.users[u.ID] = *u
	return nil
}

func (s *Store) DebitForBooking(ctx context.Context, id int64, amount decimal.Decimal, seats int) error {
	if err := s.enter(OpDebitForBooking); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || !u.IsActive || u.Balance.LessThan(amount) {
		return repositories.ErrConditionFailed
	}
	u.Balance = u.Balance.Sub(amount)
	u.TotalRides += seats
	u.TotalSpent = u.TotalSpent.Add(amount)
	s.users[id] = u
	return nil
}

func (s *Store) RevertBookingDebit(ctx context.Context, id int64, amount decimal.Decimal, seats int) error {
	if err := s.enter(OpRevertBookingDebit); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repositories.ErrConditionFailed
	}
	u.Balance = u.Balance.Add(amount)
	u.TotalRides = max(u.TotalRides-seats, 0)
	u.TotalSpent = decimal.Max(u.TotalSpent.Sub(amount), decimal.Zero)
	s.users[id] = u
	return nil
}

func (s *Store) CreditBalance(ctx context.Context, id int64, amount decimal.Decimal) error {
	if err := s.enter(OpCreditBalance); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repositories.ErrConditionFailed
	}
	u.Balance = u.Balance.Add(amount)
	s.users[id] = u
	return nil
}

// --- routes

func (s *Store) ListActiveRoutes(ctx context.Context) ([]models.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Route{}
	for _, r := range s.routes {
		if r.IsActive {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RouteName < out[j].RouteName })
	return out, nil
}

func (s *Store) GetActiveRoute(ctx context.Context, id int64) (models.Route, error) {
	if err := s.enter(OpGetActiveRoute); err != nil {
		return models.Route{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.routes[id]
	if !ok || !r.IsActive {
		return models.Route{}, repositories.ErrNotFound
	}
	return r, nil
}

func (s *Store) ReserveSeats(ctx context.Context, id int64, seats int) error {
	if err := s.enter(OpReserveSeats); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.routes[id]
	if !ok || r.AvailableSeats < seats {
		return repositories.ErrConditionFailed
	}
	r.AvailableSeats -= seats
	s.routes[id] = r
	return nil
}

func (s *Store) ReleaseSeats(ctx context.Context, id int64, seats int) error {
	if err := s.enter(OpReleaseSeats); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.routes[id]
	if !ok {
		return repositories.ErrConditionFailed
	}
	r.AvailableSeats += seats
	s.routes[id] = r
	return nil
}

// --- bookings

func (s *Store) CreateBooking(ctx context.Context, b *models.Booking) error {
	if err := s.enter(OpCreateBooking); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.bookings {
		if existing.BookingCode == b.BookingCode {
			return fmt.Errorf("%w: booking code %s", repositories.ErrDuplicate, b.BookingCode)
		}
	}
	b.ID = s.id()
	stored := *b
	stored.Route = nil
	s.bookings[b.ID] = stored
	return nil
}

func (s *Store) DeleteBooking(ctx context.Context, id int64) error {
	if err := s.enter(OpDeleteBooking); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return repositories.ErrConditionFailed
	}
	delete(s.bookings, id)
	return nil
}

func (s *Store) withRoute(b models.Booking) models.Booking {
	if r, ok := s.routes[b.RouteID]; ok {
		sum := r.Summary()
		b.Route = &sum
	}
	return b
}

func (s *Store) GetUserBooking(ctx context.Context, userID, id int64) (models.Booking, error) {
	if err := s.enter(OpGetUserBooking); err != nil {
		return models.Booking{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok || b.UserID != userID {
		return models.Booking{}, repositories.ErrNotFound
	}
	return s.withRoute(b), nil
}

func (s *Store) UpdateBookingStatus(ctx context.Context, id int64, from, to models.BookingStatus) error {
	if err := s.enter(OpUpdateBookingStatus); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != from {
		return repositories.ErrConditionFailed
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	s.bookings[id] = b
	return nil
}

func (s *Store) ListUserBookings(ctx context.Context, userID int64, page domain.Pagination) ([]models.Booking, int, error) {
	if err := s.enter(OpListUserBookings); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := []models.Booking{}
	for _, b := range s.bookings {
		if b.UserID == userID {
			all = append(all, s.withRoute(b))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return pageOf(all, page), len(all), nil
}

func (s *Store) CompleteDepartedBookings(ctx context.Context, before time.Time) (int64, error) {
	if err := s.enter(OpCompleteDeparted); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	now := time.Now().UTC()
	for id, b := range s.bookings {
		if b.Status == models.BookingConfirmed && b.DepartureTime.Before(before) {
			b.Status = models.BookingCompleted
			b.UpdatedAt = now
			s.bookings[id] = b
			n++
		}
	}
	return n, nil
}

// --- transactions

func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if err := s.enter(OpCreateTransaction); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.transactions {
		if existing.Reference == t.Reference {
			return fmt.Errorf("%w: reference %s", repositories.ErrDuplicate, t.Reference)
		}
	}
	t.ID = s.id()
	s.transactions = append(s.transactions, *t)
	return nil
}

func (s *Store) ListUserTransactions(ctx context.Context, userID int64, txType models.TransactionType, page domain.Pagination) ([]models.Transaction, int, error) {
	if err := s.enter(OpListUserTransactions); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := []models.Transaction{}
	for i := len(s.transactions) - 1; i >= 0; i-- {
		t := s.transactions[i]
		if t.UserID != userID || (txType != "" && t.Type != txType) {
			continue
		}
		all = append(all, t)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return pageOf(all, page), len(all), nil
}

// --- discrepancies

func (s *Store) RecordDiscrepancy(ctx context.Context, d *models.Discrepancy) error {
	if err := s.enter(OpRecordDiscrepancy); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.Status == "" {
		d.Status = models.DiscrepancyOpen
	}
	d.ID = s.id()
	s.discrepancies[d.ID] = *d
	return nil
}

func (s *Store) ListOpenDiscrepancies(ctx context.Context, limit int) ([]models.Discrepancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Discrepancy{}
	for _, d := range s.discrepancies {
		if d.Status == models.DiscrepancyOpen {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ResolveDiscrepancy(ctx context.Context, id int64, resolvedAt time.Time) error {
	if err := s.enter(OpResolveDiscrepancy); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.discrepancies[id]
	if !ok || d.Status != models.DiscrepancyOpen {
		return repositories.ErrConditionFailed
	}
	d.Status = models.DiscrepancyResolved
	d.ResolvedAt = &resolvedAt
	s.discrepancies[id] = d
	return nil
}

func pageOf[T any](all []T, page domain.Pagination) []T {
	start := page.Offset()
	if start >= len(all) {
		return []T{}
	}
	end := min(start+page.Limit, len(all))
	return all[start:end]
}
