package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Room, error)

	// ListByRoomType returns all units of the type in creation order.
	ListByRoomType(ctx context.Context, roomTypeID string) ([]*Room, error)

	// ListOccupancies returns all units of the type in creation order, each
	// with the bookings whose raw instant range intersects [from, to). The
	// instant filter is a cheap pre-filter; day-level overlap is decided by
	// the caller.
	ListOccupancies(ctx context.Context, roomTypeID string, from, to time.Time) ([]*Occupancy, error)

	// UpsertAvailability writes the per-(room, day) availability flag. The date
	// must be the UTC-midnight instant of a business-timezone day key. Safe to
	// call repeatedly for the same key.
	UpsertAvailability(ctx context.Context, roomID string, date time.Time, isAvailable bool) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Room, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "room_type_id", "unit_number", "created_at").
		From("public.rooms").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get room query failed: %w", err)
	}

	var rm Room
	if err := r.pool.QueryRow(ctx, query, args...).
		Scan(&rm.ID, &rm.RoomTypeID, &rm.UnitNumber, &rm.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room failed: %w", err)
	}
	return &rm, nil
}

func (r *pgxRepository) ListByRoomType(ctx context.Context, roomTypeID string) ([]*Room, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "room_type_id", "unit_number", "created_at").
		From("public.rooms").
		Where(squirrel.Eq{"room_type_id": roomTypeID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list rooms query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rooms failed: %w", err)
	}
	defer rows.Close()

	var rooms []*Room
	for rows.Next() {
		var rm Room
		if err := rows.Scan(&rm.ID, &rm.RoomTypeID, &rm.UnitNumber, &rm.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room failed: %w", err)
		}
		rooms = append(rooms, &rm)
	}

	return rooms, nil
}

func (r *pgxRepository) ListOccupancies(ctx context.Context, roomTypeID string, from, to time.Time) ([]*Occupancy, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"r.id", "r.room_type_id", "r.unit_number", "r.created_at",
		"b.id", "b.check_in", "b.check_out",
	).
		From("public.rooms r").
		LeftJoin("public.bookings b ON b.room_id = r.id AND b.check_in < ? AND b.check_out > ?", to, from).
		Where(squirrel.Eq{"r.room_type_id": roomTypeID}).
		OrderBy("r.created_at ASC", "r.id ASC", "b.check_in ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list occupancies query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list occupancies failed: %w", err)
	}
	defer rows.Close()

	var result []*Occupancy
	index := map[string]*Occupancy{}

	for rows.Next() {
		var rm Room
		var bookingID *string
		var checkIn, checkOut *time.Time
		if err := rows.Scan(
			&rm.ID, &rm.RoomTypeID, &rm.UnitNumber, &rm.CreatedAt,
			&bookingID, &checkIn, &checkOut,
		); err != nil {
			return nil, fmt.Errorf("scan occupancy failed: %w", err)
		}

		occ, ok := index[rm.ID]
		if !ok {
			occ = &Occupancy{Room: rm}
			index[rm.ID] = occ
			result = append(result, occ)
		}
		if bookingID != nil && checkIn != nil && checkOut != nil {
			occ.Stays = append(occ.Stays, Stay{BookingID: *bookingID, CheckIn: *checkIn, CheckOut: *checkOut})
		}
	}

	return result, nil
}

func (r *pgxRepository) UpsertAvailability(ctx context.Context, roomID string, date time.Time, isAvailable bool) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.availabilities").
		Columns("room_id", "date", "is_available").
		Values(roomID, date, isAvailable).
		Suffix("ON CONFLICT (room_id, date) DO UPDATE SET is_available = EXCLUDED.is_available").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert availability query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert availability failed: %w", err)
	}
	return nil
}
