package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
)

// memoryState is one snapshot of the tables. Transactions work on a clone and
// swap it in on commit, so a failed transaction leaves nothing behind.
type memoryState struct {
	tours    map[uuid.UUID]domain.Tour
	bookings map[uuid.UUID]domain.Booking
	reviews  []domain.Review
	names    map[uuid.UUID]string
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		tours:    make(map[uuid.UUID]domain.Tour, len(s.tours)),
		bookings: make(map[uuid.UUID]domain.Booking, len(s.bookings)),
		reviews:  append([]domain.Review(nil), s.reviews...),
		names:    make(map[uuid.UUID]string, len(s.names)),
	}
	for k, v := range s.tours {
		c.tours[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.names {
		c.names[k] = v
	}
	return c
}

type storeFault struct {
	err error
	// afterWrite applies the write before failing, like a commit whose
	// acknowledgement was lost.
	afterWrite bool
}

// memoryStore serializes transactions with a single mutex, which stands in for
// the row locks the SQL implementation takes.
type memoryStore struct {
	txMu  sync.Mutex
	state *memoryState
	clock time.Time

	faultMu sync.Mutex
	faults  map[string][]storeFault
	calls   map[string]int

	// skipReviewExistsCheck makes ExistsForUserTour always answer false so the
	// unique constraint is the only guard left.
	skipReviewExistsCheck bool
	ratingWritesOutsideTx int
}

var _ ports.Store = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	return &memoryStore{
		state: &memoryState{
			tours:    map[uuid.UUID]domain.Tour{},
			bookings: map[uuid.UUID]domain.Booking{},
			names:    map[uuid.UUID]string{},
		},
		clock:  time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
		faults: map[string][]storeFault{},
		calls:  map[string]int{},
	}
}

func (s *memoryStore) addTour(t domain.Tour) domain.Tour {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.ProviderID == uuid.Nil {
		t.ProviderID = uuid.New()
	}
	if t.Currency == "" {
		t.Currency = "EUR"
	}
	if t.MaxParticipants == 0 {
		t.MaxParticipants = 10
	}
	s.txMu.Lock()
	s.state.tours[t.ID] = t
	s.txMu.Unlock()
	return t
}

func (s *memoryStore) addBooking(b domain.Booking) domain.Booking {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.PartySize == 0 {
		b.PartySize = 1
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = domain.PaymentStatusPending
	}
	s.txMu.Lock()
	b.CreatedAt = s.tick()
	b.UpdatedAt = b.CreatedAt
	s.state.bookings[b.ID] = b
	s.txMu.Unlock()
	return b
}

func (s *memoryStore) tour(id uuid.UUID) domain.Tour {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.state.tours[id]
}

func (s *memoryStore) booking(id uuid.UUID) domain.Booking {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.state.bookings[id]
}

func (s *memoryStore) reviewCount() int {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return len(s.state.reviews)
}

func (s *memoryStore) bookingCount() int {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return len(s.state.bookings)
}

func (s *memoryStore) failWith(op string, faults ...storeFault) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = append(s.faults[op], faults...)
}

func (s *memoryStore) callCount(op string) int {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	return s.calls[op]
}

func (s *memoryStore) nextFault(op string) (storeFault, bool) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.calls[op]++
	queue := s.faults[op]
	if len(queue) == 0 {
		return storeFault{}, false
	}
	s.faults[op] = queue[1:]
	return queue[0], true
}

// tick must be called with txMu held.
func (s *memoryStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memoryStore) Tours() ports.TourRepository       { return &memoryTours{memoryRepo{store: s}} }
func (s *memoryStore) Bookings() ports.BookingRepository { return &memoryBookings{memoryRepo{store: s}} }
func (s *memoryStore) Reviews() ports.ReviewRepository   { return &memoryReviews{memoryRepo{store: s}} }

func (s *memoryStore) WithinTx(ctx context.Context, fn func(uow ports.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	working := s.state.clone()
	if err := fn(&memoryUnit{store: s, tx: working}); err != nil {
		return err
	}
	if f, ok := s.nextFault("commit"); ok {
		if f.afterWrite {
			s.state = working
		}
		return f.err
	}
	s.state = working
	return nil
}

type memoryUnit struct {
	store *memoryStore
	tx    *memoryState
}

func (u *memoryUnit) Tours() ports.TourRepository {
	return &memoryTours{memoryRepo{store: u.store, tx: u.tx}}
}
func (u *memoryUnit) Bookings() ports.BookingRepository {
	return &memoryBookings{memoryRepo{store: u.store, tx: u.tx}}
}
func (u *memoryUnit) Reviews() ports.ReviewRepository {
	return &memoryReviews{memoryRepo{store: u.store, tx: u.tx}}
}

type memoryRepo struct {
	store *memoryStore
	tx    *memoryState
}

// run executes fn against the transaction snapshot, or against the committed
// state under the store lock when called outside a transaction.
func (r memoryRepo) run(ctx context.Context, op string, fn func(st *memoryState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fault, faulty := r.store.nextFault(op)
	if faulty && !fault.afterWrite {
		return fault.err
	}
	var err error
	if r.tx != nil {
		err = fn(r.tx)
	} else {
		r.store.txMu.Lock()
		err = fn(r.store.state)
		r.store.txMu.Unlock()
	}
	if err != nil {
		return err
	}
	if faulty {
		return fault.err
	}
	return nil
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

type memoryTours struct{ memoryRepo }

func (r *memoryTours) FindByID(ctx context.Context, id uuid.UUID) (*domain.Tour, error) {
	var out *domain.Tour
	err := r.run(ctx, "tours.find", func(st *memoryState) error {
		t, ok := st.tours[id]
		if !ok {
			return sql.ErrNoRows
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *memoryTours) List(ctx context.Context, filter domain.TourListFilter) ([]domain.Tour, error) {
	var out []domain.Tour
	err := r.run(ctx, "tours.list", func(st *memoryState) error {
		for _, t := range st.tours {
			out = append(out, t)
		}
		return nil
	})
	return out, err
}

func (r *memoryTours) Count(ctx context.Context, filter domain.TourListFilter) (int64, error) {
	tours, err := r.List(ctx, filter)
	return int64(len(tours)), err
}

func (r *memoryTours) ListLocations(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (r *memoryTours) ListImages(ctx context.Context, tourIDs []uuid.UUID) (map[uuid.UUID][]domain.TourImage, error) {
	return map[uuid.UUID][]domain.TourImage{}, nil
}

func (r *memoryTours) LockForUpdate(ctx context.Context, id uuid.UUID) (*domain.Tour, error) {
	if r.tx == nil {
		return nil, errors.New("row lock requested outside a transaction")
	}
	return r.FindByID(ctx, id)
}

func (r *memoryTours) UpdateRatingStats(ctx context.Context, stats domain.RatingStats) error {
	if r.tx == nil {
		r.store.ratingWritesOutsideTx++
		return errors.New("rating columns are only writable inside the aggregator transaction")
	}
	return r.run(ctx, "tours.update_rating", func(st *memoryState) error {
		t, ok := st.tours[stats.TourID]
		if !ok {
			return sql.ErrNoRows
		}
		t.AverageRating = stats.AverageRating
		t.TotalReviews = stats.TotalReviews
		st.tours[t.ID] = t
		return nil
	})
}

type memoryBookings struct{ memoryRepo }

func (r *memoryBookings) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.run(ctx, "bookings.create", func(st *memoryState) error {
		if booking.IdempotencyKey != nil {
			for _, existing := range st.bookings {
				if existing.UserID == booking.UserID && existing.IdempotencyKey != nil && *existing.IdempotencyKey == *booking.IdempotencyKey {
					return uniqueViolation("bookings_user_idempotency_key")
				}
			}
		}
		stored := *booking
		stored.ID = uuid.New()
		stored.CreatedAt = r.store.tick()
		stored.UpdatedAt = stored.CreatedAt
		st.bookings[stored.ID] = stored
		out = &stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *memoryBookings) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.run(ctx, "bookings.get", func(st *memoryState) error {
		b, ok := st.bookings[id]
		if !ok {
			return sql.ErrNoRows
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *memoryBookings) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	if r.tx == nil {
		return nil, errors.New("row lock requested outside a transaction")
	}
	return r.GetByID(ctx, id)
}

func (r *memoryBookings) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.run(ctx, "bookings.find_by_key", func(st *memoryState) error {
		for _, b := range st.bookings {
			if b.UserID == userID && b.IdempotencyKey != nil && *b.IdempotencyKey == key {
				found := b
				out = &found
				return nil
			}
		}
		return sql.ErrNoRows
	})
	return out, err
}

func (r *memoryBookings) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.run(ctx, "bookings.update_status", func(st *memoryState) error {
		b, ok := st.bookings[id]
		if !ok || b.Status != from {
			return sql.ErrNoRows
		}
		b.Status = to
		b.UpdatedAt = r.store.tick()
		st.bookings[id] = b
		out = &b
		return nil
	})
	return out, err
}

func (r *memoryBookings) list(ctx context.Context, match func(domain.Booking) bool) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.run(ctx, "bookings.list", func(st *memoryState) error {
		for _, b := range st.bookings {
			if !match(b) {
				continue
			}
			if t, ok := st.tours[b.TourID]; ok {
				title := t.Title
				b.TourTitle = &title
			}
			out = append(out, b)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BookingDate.Equal(out[j].BookingDate) {
			return out[i].BookingDate.After(out[j].BookingDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

func (r *memoryBookings) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	return r.list(ctx, func(b domain.Booking) bool { return b.UserID == userID })
}

func (r *memoryBookings) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Booking, error) {
	return r.list(ctx, func(b domain.Booking) bool { return b.ProviderID == providerID })
}

func (r *memoryBookings) ListLatestByProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]domain.Booking, error) {
	out, err := r.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryBookings) StatsByProvider(ctx context.Context, providerID uuid.UUID) (*domain.ProviderBookingStats, error) {
	bookings, err := r.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	stats := &domain.ProviderBookingStats{TotalBookings: len(bookings)}
	for _, b := range bookings {
		if b.Status != domain.BookingStatusCancelled {
			stats.TotalRevenueCents += b.TotalPriceCents
		}
		if b.Status == domain.BookingStatusPending {
			stats.PendingBookings++
		}
	}
	return stats, nil
}

type memoryReviews struct{ memoryRepo }

func (r *memoryReviews) Create(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	var out *domain.Review
	err := r.run(ctx, "reviews.create", func(st *memoryState) error {
		for _, existing := range st.reviews {
			if existing.UserID == review.UserID && existing.TourID == review.TourID {
				return uniqueViolation("reviews_user_tour_key")
			}
			if existing.BookingID == review.BookingID {
				return uniqueViolation("reviews_booking_id_key")
			}
		}
		stored := *review
		stored.ID = uuid.New()
		stored.CreatedAt = r.store.tick()
		st.reviews = append(st.reviews, stored)
		out = &stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *memoryReviews) ExistsForUserTour(ctx context.Context, userID, tourID uuid.UUID) (bool, error) {
	if r.store.skipReviewExistsCheck {
		return false, nil
	}
	found := false
	err := r.run(ctx, "reviews.exists", func(st *memoryState) error {
		for _, existing := range st.reviews {
			if existing.UserID == userID && existing.TourID == tourID {
				found = true
			}
		}
		return nil
	})
	return found, err
}

func (r *memoryReviews) ListByTour(ctx context.Context, tourID uuid.UUID, limit, offset int) ([]domain.Review, error) {
	var out []domain.Review
	err := r.run(ctx, "reviews.list", func(st *memoryState) error {
		for i := len(st.reviews) - 1; i >= 0; i-- {
			rv := st.reviews[i]
			if rv.TourID != tourID {
				continue
			}
			if name, ok := st.names[rv.UserID]; ok {
				rv.ReviewerName = &name
			}
			out = append(out, rv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryReviews) Aggregate(ctx context.Context, tourID uuid.UUID) (*domain.RatingStats, error) {
	var ratings []int
	err := r.run(ctx, "reviews.aggregate", func(st *memoryState) error {
		for _, rv := range st.reviews {
			if rv.TourID == tourID {
				ratings = append(ratings, rv.Rating)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	stats := ratingStatsOf(tourID, ratings)
	return &stats, nil
}

func (r *memoryReviews) AggregateByProvider(ctx context.Context, providerID uuid.UUID) (*domain.RatingStats, error) {
	var ratings []int
	err := r.run(ctx, "reviews.aggregate_provider", func(st *memoryState) error {
		for _, rv := range st.reviews {
			if st.tours[rv.TourID].ProviderID == providerID {
				ratings = append(ratings, rv.Rating)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	stats := ratingStatsOf(uuid.Nil, ratings)
	return &stats, nil
}

func (r *memoryReviews) ListRecentByProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]domain.Review, error) {
	var out []domain.Review
	err := r.run(ctx, "reviews.recent_provider", func(st *memoryState) error {
		for i := len(st.reviews) - 1; i >= 0 && len(out) < limit; i-- {
			rv := st.reviews[i]
			if st.tours[rv.TourID].ProviderID == providerID {
				out = append(out, rv)
			}
		}
		return nil
	})
	return out, err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, routingKey)
	return p.err
}

func (p *recordingPublisher) count(routingKey string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == routingKey {
			n++
		}
	}
	return n
}

type stubPayments struct {
	status domain.PaymentStatus
	err    error
}

func (p stubPayments) InitialStatus(context.Context, ports.PaymentRequest) (domain.PaymentStatus, error) {
	return p.status, p.err
}

// ratingStatsOf mirrors the SQL aggregate: a bucket per star and an average
// of 0 for no reviews.
func ratingStatsOf(tourID uuid.UUID, ratings []int) domain.RatingStats {
	counts := make(map[int]int, domain.MaxRating)
	for r := domain.MinRating; r <= domain.MaxRating; r++ {
		counts[r] = 0
	}
	sum := 0
	for _, r := range ratings {
		counts[r]++
		sum += r
	}
	avg := 0.0
	if len(ratings) > 0 {
		avg = float64(sum) / float64(len(ratings))
	}
	return domain.RatingStats{
		TourID:        tourID,
		AverageRating: avg,
		TotalReviews:  len(ratings),
		RatingCounts:  counts,
	}
}
