package roomtype

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*RoomType, error)
	GetBySlug(ctx context.Context, slug string) (*RoomType, error)
	List(ctx context.Context, filter Filter) ([]*RoomType, int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const roomTypeColumns = "id, name, slug, description, price_kobo, capacity, image_urls, created_at"

func scanRoomType(row pgx.Row) (*RoomType, error) {
	var rt RoomType
	if err := row.Scan(
		&rt.ID, &rt.Name, &rt.Slug, &rt.Description,
		&rt.PriceKobo, &rt.Capacity, &rt.ImageURLs, &rt.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room type failed: %w", err)
	}
	return &rt, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*RoomType, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(roomTypeColumns).
		From("public.room_types").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get room type query failed: %w", err)
	}

	return scanRoomType(r.pool.QueryRow(ctx, query, args...))
}

func (r *pgxRepository) GetBySlug(ctx context.Context, slug string) (*RoomType, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(roomTypeColumns).
		From("public.room_types").
		Where(squirrel.Eq{"slug": slug}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get room type by slug query failed: %w", err)
	}

	return scanRoomType(r.pool.QueryRow(ctx, query, args...))
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*RoomType, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	queryBuilder := psql.Select(
		"id", "name", "slug", "description", "price_kobo", "capacity", "image_urls", "created_at",
		"count(*) OVER() as total_count",
	).
		From("public.room_types").
		OrderBy("created_at ASC")

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	queryBuilder = queryBuilder.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list room types query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list room types failed: %w", err)
	}
	defer rows.Close()

	var result []*RoomType
	var total int

	for rows.Next() {
		var rt RoomType
		if err := rows.Scan(
			&rt.ID, &rt.Name, &rt.Slug, &rt.Description,
			&rt.PriceKobo, &rt.Capacity, &rt.ImageURLs, &rt.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan room type failed: %w", err)
		}
		result = append(result, &rt)
	}

	return result, total, nil
}
