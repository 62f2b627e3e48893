package bookingrequest

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
	Create(ctx context.Context, br *BookingRequest) error
	GetByID(ctx context.Context, id string) (*BookingRequest, error)
	GetByReference(ctx context.Context, reference string) (*BookingRequest, error)

	// FindLatestReusable returns the most recent request matching the key,
	// created at or after cutoff, in initiated or failed status, with no
	// payment reference attached yet. Returns ErrNotFound when none matches.
	FindLatestReusable(ctx context.Context, key ReuseKey, cutoff time.Time) (*BookingRequest, error)

	// ResetForRetry moves the request back to initiated and clears last_error.
	ResetForRetry(ctx context.Context, id string) error

	// AttachReference stores the gateway reference without changing status.
	AttachReference(ctx context.Context, id, reference string) error

	// RecordInitError stores a transient initialization error; status stays put.
	RecordInitError(ctx context.Context, id, lastError string) error

	MarkFailed(ctx context.Context, id string, reason string) error
	MarkPaid(ctx context.Context, in MarkPaidInput) error
	MarkPaidNeedsReview(ctx context.Context, in ReviewInput) error

	// ListCreatedSince returns requests for the reconciliation sweep.
	ListCreatedSince(ctx context.Context, since time.Time) ([]*BookingRequest, error)
}

// MarkPaidInput is the terminal success transition payload.
type MarkPaidInput struct {
	ID                 string
	PaymentReference   string
	BookingID          string
	VerifiedAmountKobo *int64
	VerifiedCurrency   *string
}

// ReviewInput is the manual-review escalation payload.
type ReviewInput struct {
	ID                 string
	PaymentReference   string
	ReviewReason       string
	LastError          string
	VerifiedAmountKobo *int64
	VerifiedCurrency   *string
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const requestColumns = `id, full_name, phone_number, email, arrival_day, departure_day,
room_type_id, room_specification, heard_about_us, guest_type, gender, terms_accepted,
official_id_url, official_id_mime_type, official_id_original_name, official_id_size_bytes,
amount_kobo, payment_status, payment_reference, booking_id,
review_reason, last_error, verified_amount_kobo, verified_currency, webhook_received_at,
created_at, updated_at`

func scanRequest(row pgx.Row) (*BookingRequest, error) {
	var br BookingRequest
	if err := row.Scan(
		&br.ID, &br.FullName, &br.PhoneNumber, &br.Email, &br.ArrivalDay, &br.DepartureDay,
		&br.RoomTypeID, &br.RoomSpecification, &br.HeardAboutUs, &br.GuestType, &br.Gender, &br.TermsAccepted,
		&br.OfficialID.URL, &br.OfficialID.MimeType, &br.OfficialID.OriginalName, &br.OfficialID.SizeBytes,
		&br.AmountKobo, &br.PaymentStatus, &br.PaymentReference, &br.BookingID,
		&br.ReviewReason, &br.LastError, &br.VerifiedAmountKobo, &br.VerifiedCurrency, &br.WebhookReceivedAt,
		&br.CreatedAt, &br.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan booking request failed: %w", err)
	}
	return &br, nil
}

func (r *pgxRepository) Create(ctx context.Context, br *BookingRequest) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.booking_requests").
		Columns(
			"full_name", "phone_number", "email", "arrival_day", "departure_day",
			"room_type_id", "room_specification", "heard_about_us", "guest_type", "gender", "terms_accepted",
			"official_id_url", "official_id_mime_type", "official_id_original_name", "official_id_size_bytes",
			"amount_kobo", "payment_status",
		).
		Values(
			br.FullName, br.PhoneNumber, br.Email, br.ArrivalDay, br.DepartureDay,
			br.RoomTypeID, br.RoomSpecification, br.HeardAboutUs, br.GuestType, br.Gender, br.TermsAccepted,
			br.OfficialID.URL, br.OfficialID.MimeType, br.OfficialID.OriginalName, br.OfficialID.SizeBytes,
			br.AmountKobo, StatusInitiated,
		).
		Suffix("RETURNING id, payment_status, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking request query failed: %w", err)
	}

	return r.pool.QueryRow(ctx, query, args...).
		Scan(&br.ID, &br.PaymentStatus, &br.CreatedAt, &br.UpdatedAt)
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*BookingRequest, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(requestColumns).
		From("public.booking_requests").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking request query failed: %w", err)
	}

	return scanRequest(r.pool.QueryRow(ctx, query, args...))
}

func (r *pgxRepository) GetByReference(ctx context.Context, reference string) (*BookingRequest, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(requestColumns).
		From("public.booking_requests").
		Where(squirrel.Eq{"payment_reference": reference}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking request by reference query failed: %w", err)
	}

	return scanRequest(r.pool.QueryRow(ctx, query, args...))
}

func (r *pgxRepository) FindLatestReusable(ctx context.Context, key ReuseKey, cutoff time.Time) (*BookingRequest, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(requestColumns).
		From("public.booking_requests").
		Where(squirrel.Eq{
			"email":         key.Email,
			"room_type_id":  key.RoomTypeID,
			"arrival_day":   key.ArrivalDay,
			"departure_day": key.DepartureDay,
			"amount_kobo":   key.AmountKobo,
		}).
		Where(squirrel.Eq{"payment_reference": nil}).
		Where(squirrel.Expr("payment_status IN (?, ?)", StatusInitiated, StatusFailed)).
		Where(squirrel.GtOrEq{"created_at": cutoff}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find reusable booking request query failed: %w", err)
	}

	return scanRequest(r.pool.QueryRow(ctx, query, args...))
}

func (r *pgxRepository) ResetForRetry(ctx context.Context, id string) error {
	return r.update(ctx, id, map[string]any{
		"payment_status": StatusInitiated,
		"last_error":     nil,
	})
}

func (r *pgxRepository) AttachReference(ctx context.Context, id, reference string) error {
	return r.update(ctx, id, map[string]any{
		"payment_reference": reference,
		"last_error":        nil,
	})
}

func (r *pgxRepository) RecordInitError(ctx context.Context, id, lastError string) error {
	return r.update(ctx, id, map[string]any{
		"last_error": lastError,
	})
}

func (r *pgxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.update(ctx, id, map[string]any{
		"payment_status": StatusFailed,
		"last_error":     reason,
	})
}

func (r *pgxRepository) MarkPaid(ctx context.Context, in MarkPaidInput) error {
	return r.update(ctx, in.ID, map[string]any{
		"payment_status":       StatusPaid,
		"payment_reference":    in.PaymentReference,
		"booking_id":           in.BookingID,
		"review_reason":        nil,
		"last_error":           nil,
		"webhook_received_at":  squirrel.Expr("now()"),
		"verified_amount_kobo": in.VerifiedAmountKobo,
		"verified_currency":    in.VerifiedCurrency,
	})
}

func (r *pgxRepository) MarkPaidNeedsReview(ctx context.Context, in ReviewInput) error {
	return r.update(ctx, in.ID, map[string]any{
		"payment_status":       StatusPaidNeedsReview,
		"payment_reference":    in.PaymentReference,
		"review_reason":        in.ReviewReason,
		"last_error":           in.LastError,
		"webhook_received_at":  squirrel.Expr("now()"),
		"verified_amount_kobo": in.VerifiedAmountKobo,
		"verified_currency":    in.VerifiedCurrency,
	})
}

func (r *pgxRepository) update(ctx context.Context, id string, sets map[string]any) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Update("public.booking_requests").
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id})
	for col, val := range sets {
		builder = builder.Set(col, val)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build update booking request query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update booking request failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) ListCreatedSince(ctx context.Context, since time.Time) ([]*BookingRequest, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(requestColumns).
		From("public.booking_requests").
		Where(squirrel.GtOrEq{"created_at": since}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list booking requests query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list booking requests failed: %w", err)
	}
	defer rows.Close()

	var result []*BookingRequest
	for rows.Next() {
		br, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, br)
	}

	return result, nil
}
