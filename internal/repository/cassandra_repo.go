package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Eursukkul/hotel-booking/internal/models"
	"github.com/gocql/gocql"
)

// maxCASAttempts bounds the compare-and-set loop on the inventory counter.
const maxCASAttempts = 8

// CQLSession is the part of a gocql session the repository uses.
type CQLSession interface {
	Exec(ctx context.Context, stmt string, values ...any) error
	// ScanOne reads a single row into dest and returns gocql.ErrNotFound when there is none.
	ScanOne(ctx context.Context, stmt string, values []any, dest ...any) error
	// ScanAll calls row once per result row.
	ScanAll(ctx context.Context, stmt string, values []any, row func(scan func(dest ...any) error) error) error
	// CAS runs a lightweight transaction. When it is not applied, current holds the row as
	// stored, and is empty when the row does not exist.
	CAS(ctx context.Context, stmt string, values ...any) (applied bool, current map[string]any, err error)
}

type gocqlSession struct {
	session *gocql.Session
}

func NewCQLSession(session *gocql.Session) CQLSession {
	return gocqlSession{session: session}
}

func (s gocqlSession) Exec(ctx context.Context, stmt string, values ...any) error {
	return s.session.Query(stmt, values...).WithContext(ctx).Exec()
}

func (s gocqlSession) ScanOne(ctx context.Context, stmt string, values []any, dest ...any) error {
	return s.session.Query(stmt, values...).WithContext(ctx).Scan(dest...)
}

func (s gocqlSession) ScanAll(ctx context.Context, stmt string, values []any, row func(scan func(dest ...any) error) error) error {
	scanner := s.session.Query(stmt, values...).WithContext(ctx).Iter().Scanner()
	for scanner.Next() {
		if err := row(scanner.Scan); err != nil {
			scanner.Err()
			return err
		}
	}
	return scanner.Err()
}

func (s gocqlSession) CAS(ctx context.Context, stmt string, values ...any) (bool, map[string]any, error) {
	current := make(map[string]any)
	applied, err := s.session.Query(stmt, values...).WithContext(ctx).MapScanCAS(current)
	return applied, current, err
}

// cassandraRepository stores bookings in a Cassandra table keyed by booking_id. Every
// booking write is a lightweight transaction conditioned on the rooms it replaces, and the
// counter is a compare-and-set row in a second table. Cassandra has no cross-partition
// transactions, so a booking write that fails releases its counter reservation.
type cassandraRepository struct {
	cql  CQLSession
	opts Options
}

func NewCassandraRepository(cql CQLSession, opts Options) BookingRepository {
	return &cassandraRepository{cql: cql, opts: opts.quoted()}
}

// quoted returns opts with table names as CQL quoted identifiers.
func (o Options) quoted() Options {
	o = o.withDefaults()
	quote := func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }
	o.Table = quote(o.Table)
	o.InventoryTable = quote(o.InventoryTable)
	return o
}

// CreateCassandraTables creates the bookings and inventory tables if they do not exist.
func CreateCassandraTables(ctx context.Context, cql CQLSession, opts Options) error {
	opts = opts.quoted()

	err := cql.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		booking_id text PRIMARY KEY,
		guest_name text,
		guest_names list<text>,
		number_of_guests int,
		rooms text,
		total_price int,
		created_at text
	)`, opts.Table))
	if err != nil {
		return fmt.Errorf("create %s: %w", opts.Table, err)
	}

	err = cql.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id text PRIMARY KEY,
		capacity int,
		booked int
	)`, opts.InventoryTable))
	if err != nil {
		return fmt.Errorf("create %s: %w", opts.InventoryTable, err)
	}
	return nil
}

func (r *cassandraRepository) selectBookings() string {
	return fmt.Sprintf(`SELECT booking_id, guest_name, guest_names, number_of_guests, rooms,
		total_price, created_at FROM %s`, r.opts.Table)
}

// scanBooking also returns rooms exactly as stored, for use in write conditions.
func scanBooking(scan func(dest ...any) error) (*models.Booking, string, error) {
	var (
		b     models.Booking
		rooms string
	)
	err := scan(&b.BookingID, &b.GuestName, &b.GuestNames, &b.NumberOfGuests, &rooms, &b.TotalPrice, &b.CreatedAt)
	if err != nil {
		return nil, "", err
	}
	if b.Rooms, err = models.ParseRooms([]byte(rooms)); err != nil {
		return nil, "", fmt.Errorf("booking %s: %w", b.BookingID, err)
	}
	return &b, rooms, nil
}

func (r *cassandraRepository) Scan(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.cql.ScanAll(ctx, r.selectBookings(), nil, func(scan func(dest ...any) error) error {
		b, _, err := scanBooking(scan)
		if err != nil {
			return err
		}
		bookings = append(bookings, *b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *cassandraRepository) find(ctx context.Context, id string) (*models.Booking, string, error) {
	stmt := r.selectBookings() + " WHERE booking_id = ?"
	b, rooms, err := scanBooking(func(dest ...any) error {
		return r.cql.ScanOne(ctx, stmt, []any{id}, dest...)
	})
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, "", ErrNotFound
	}
	return b, rooms, err
}

func (r *cassandraRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	b, _, err := r.find(ctx, id)
	return b, err
}

// insert creates the booking unless the id is already taken.
func (r *cassandraRepository) insert(ctx context.Context, b *models.Booking) (bool, error) {
	rooms, err := b.Rooms.Encode()
	if err != nil {
		return false, err
	}
	applied, _, err := r.cql.CAS(ctx, fmt.Sprintf(`INSERT INTO %s
		(booking_id, guest_name, guest_names, number_of_guests, rooms, total_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS`, r.opts.Table),
		b.BookingID, b.GuestName, b.GuestNames, b.NumberOfGuests, rooms, b.TotalPrice, b.CreatedAt,
	)
	return applied, err
}

func (r *cassandraRepository) readCounter(ctx context.Context) (booked, capacity int, err error) {
	err = r.cql.ScanOne(ctx,
		fmt.Sprintf(`SELECT booked, capacity FROM %s WHERE id = ?`, r.opts.InventoryTable),
		[]any{models.HotelCounterID}, &booked, &capacity)
	if errors.Is(err, gocql.ErrNotFound) {
		return 0, 0, errCounterMissing
	}
	return booked, capacity, err
}

// adjust moves the counter by delta with a compare-and-set on the current value. A lost
// race retries against the value the failed transaction reported.
func (r *cassandraRepository) adjust(ctx context.Context, delta int) error {
	if delta == 0 || !r.opts.guarded() {
		return nil
	}

	booked, capacity, err := r.readCounter(ctx)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		if delta > 0 && booked+delta > capacity {
			return ErrInventoryExhausted
		}

		applied, current, err := r.cql.CAS(ctx,
			fmt.Sprintf(`UPDATE %s SET booked = ? WHERE id = ? IF booked = ?`, r.opts.InventoryTable),
			booked+delta, models.HotelCounterID, booked,
		)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}

		n, ok := current["booked"].(int)
		if !ok {
			return errCounterMissing
		}
		booked = n
	}
	return ErrConflict
}

// release undoes a counter reservation after the booking write failed.
func (r *cassandraRepository) release(ctx context.Context, delta int, cause error) error {
	if err := r.adjust(context.WithoutCancel(ctx), -delta); err != nil {
		return errors.Join(cause, fmt.Errorf("release %d rooms: %w", delta, err))
	}
	return cause
}

func (r *cassandraRepository) Put(ctx context.Context, booking *models.Booking) error {
	delta := roomCount(booking.Rooms)
	if err := r.adjust(ctx, delta); err != nil {
		return err
	}

	applied, err := r.insert(ctx, booking)
	if err != nil {
		return r.release(ctx, delta, err)
	}
	if !applied {
		return r.release(ctx, delta, ErrConflict)
	}
	return nil
}

func (r *cassandraRepository) Update(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	existing, storedRooms, err := r.find(ctx, booking.BookingID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	result := *booking
	delta := roomCount(booking.Rooms)
	if existing != nil {
		delta -= roomCount(existing.Rooms)
		if existing.CreatedAt != "" {
			result.CreatedAt = existing.CreatedAt
		}
	}
	rooms, err := result.Rooms.Encode()
	if err != nil {
		return nil, err
	}

	if err := r.adjust(ctx, delta); err != nil {
		return nil, err
	}

	var applied bool
	if existing == nil {
		applied, err = r.insert(ctx, &result)
	} else {
		// a concurrent update or delete changes rooms, so the delta above would be stale
		applied, _, err = r.cql.CAS(ctx, fmt.Sprintf(`UPDATE %s
			SET guest_name = ?, guest_names = ?, number_of_guests = ?, rooms = ?, total_price = ?
			WHERE booking_id = ? IF rooms = ?`, r.opts.Table),
			result.GuestName, result.GuestNames, result.NumberOfGuests, rooms, result.TotalPrice,
			result.BookingID, storedRooms,
		)
	}
	if err != nil {
		return nil, r.release(ctx, delta, err)
	}
	if !applied {
		return nil, r.release(ctx, delta, ErrConflict)
	}
	return &result, nil
}

func (r *cassandraRepository) Delete(ctx context.Context, id string) (*models.Booking, error) {
	existing, storedRooms, err := r.find(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	applied, current, err := r.cql.CAS(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE booking_id = ? IF rooms = ?`, r.opts.Table),
		id, storedRooms,
	)
	if err != nil {
		return nil, err
	}
	if !applied {
		if len(current) == 0 {
			// deleted by someone else, who released the rooms
			return nil, nil
		}
		return nil, ErrConflict
	}

	if err := r.adjust(context.WithoutCancel(ctx), -roomCount(existing.Rooms)); err != nil {
		return nil, fmt.Errorf("release %d rooms: %w", roomCount(existing.Rooms), err)
	}
	return existing, nil
}

func (r *cassandraRepository) Reconcile(ctx context.Context) (int, error) {
	bookings, err := r.Scan(ctx)
	if err != nil {
		return 0, err
	}
	total := sumRooms(bookings)

	if !r.opts.guarded() {
		return total, nil
	}

	err = r.cql.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, capacity, booked) VALUES (?, ?, ?)`, r.opts.InventoryTable),
		models.HotelCounterID, r.opts.Capacity, total,
	)
	if err != nil {
		return 0, fmt.Errorf("store inventory counter: %w", err)
	}
	return total, nil
}

func (r *cassandraRepository) EnsureCounter(ctx context.Context) (bool, error) {
	if !r.opts.guarded() {
		return false, nil
	}
	if _, _, err := r.readCounter(ctx); !errors.Is(err, errCounterMissing) {
		return false, err
	}

	// guarded writes fail while the counter is missing, so the scan cannot miss one
	bookings, err := r.Scan(ctx)
	if err != nil {
		return false, err
	}
	applied, _, err := r.cql.CAS(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, capacity, booked) VALUES (?, ?, ?) IF NOT EXISTS`, r.opts.InventoryTable),
		models.HotelCounterID, r.opts.Capacity, sumRooms(bookings),
	)
	if err != nil {
		return false, fmt.Errorf("create inventory counter: %w", err)
	}
	return applied, nil
}
