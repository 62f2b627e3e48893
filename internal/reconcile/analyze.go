package reconcile

import (
	"fmt"
	"strings"
	"time"
)

// Issue codes are stable identifiers; alerting and CI gates match on them.
const (
	CodePaidWithoutReference      = "PAID_WITHOUT_REFERENCE"
	CodeDuplicatePaymentReference = "DUPLICATE_PAYMENT_REFERENCE"
	CodeStalePendingPayment       = "STALE_PENDING_PAYMENT"
	CodePaidRequestWithoutBooking = "PAID_REQUEST_WITHOUT_BOOKING"
	CodePaidRequestNeedsReview    = "PAID_REQUEST_NEEDS_REVIEW"
	CodeStaleInitiatedRequest     = "STALE_INITIATED_REQUEST"
)

// BookingSnapshot is the audit-relevant slice of a booking row.
type BookingSnapshot struct {
	ID               string
	PaymentStatus    string
	PaymentReference *string
	TotalPriceKobo   int64
	CreatedAt        time.Time
}

// RequestSnapshot is the audit-relevant slice of a booking-request row.
type RequestSnapshot struct {
	ID               string
	PaymentStatus    string
	PaymentReference *string
	BookingID        *string
	CreatedAt        time.Time
}

// Issue is one detected policy violation. RecordIDs are prefixed with
// "booking:" or "request:" so mixed-kind issues stay unambiguous.
type Issue struct {
	Code             string   `json:"code"`
	Message          string   `json:"message"`
	RecordIDs        []string `json:"record_ids"`
	PaymentReference string   `json:"payment_reference,omitempty"`
}

// Summary carries scan counts alongside the issue total.
type Summary struct {
	ScannedBookings          int `json:"scanned_bookings"`
	ScannedBookingRequests   int `json:"scanned_booking_requests"`
	PaidBookings             int `json:"paid_bookings"`
	PendingBookings          int `json:"pending_bookings"`
	InitiatedBookingRequests int `json:"initiated_booking_requests"`
	ReviewBookingRequests    int `json:"review_booking_requests"`
	IssueCount               int `json:"issue_count"`
}

// Result is the full outcome of one analysis pass.
type Result struct {
	Summary Summary `json:"summary"`
	Issues  []Issue `json:"issues"`
}

// Options tunes an analysis pass. Now defaults to the wall clock;
// PendingTimeoutHours defaults to 24.
type Options struct {
	Now                 time.Time
	PendingTimeoutHours int
}

var paidStatuses = map[string]bool{"paid": true, "success": true}
var pendingStatuses = map[string]bool{"pending": true, "processing": true, "initiated": true}

func normalizeStatus(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func trimmedRef(ref *string) string {
	if ref == nil {
		return ""
	}
	return strings.TrimSpace(*ref)
}

// AnalyzePaymentConsistency inspects recent bookings and booking requests for
// payment-state violations. Pure: it never mutates its inputs and touches no
// external state, so the sweep can rerun it as often as it likes.
func AnalyzePaymentConsistency(bookings []BookingSnapshot, requests []RequestSnapshot, opts Options) Result {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	timeoutHours := opts.PendingTimeoutHours
	if timeoutHours <= 0 {
		timeoutHours = 24
	}
	staleCutoff := now.Add(-time.Duration(timeoutHours) * time.Hour)

	var issues []Issue
	summary := Summary{
		ScannedBookings:        len(bookings),
		ScannedBookingRequests: len(requests),
	}

	// Reference holders across both collections, in first-seen order, so a
	// reference reused between a booking and a request is still caught.
	var refOrder []string
	refHolders := map[string][]string{}
	note := func(reference, recordID string) {
		if reference == "" {
			return
		}
		if _, seen := refHolders[reference]; !seen {
			refOrder = append(refOrder, reference)
		}
		refHolders[reference] = append(refHolders[reference], recordID)
	}

	for _, b := range bookings {
		status := normalizeStatus(b.PaymentStatus)
		reference := trimmedRef(b.PaymentReference)

		if paidStatuses[status] {
			summary.PaidBookings++
			if reference == "" {
				issues = append(issues, Issue{
					Code:      CodePaidWithoutReference,
					Message:   fmt.Sprintf("booking %s is paid but has no payment reference", b.ID),
					RecordIDs: []string{"booking:" + b.ID},
				})
			}
		}

		if pendingStatuses[status] {
			summary.PendingBookings++
			if b.CreatedAt.Before(staleCutoff) {
				issues = append(issues, Issue{
					Code:      CodeStalePendingPayment,
					Message:   fmt.Sprintf("booking %s has a stale pending payment older than %dh", b.ID, timeoutHours),
					RecordIDs: []string{"booking:" + b.ID},
				})
			}
		}

		note(reference, "booking:"+b.ID)
	}

	for _, r := range requests {
		status := normalizeStatus(r.PaymentStatus)
		reference := trimmedRef(r.PaymentReference)

		if status == "initiated" {
			summary.InitiatedBookingRequests++
			if r.CreatedAt.Before(staleCutoff) {
				issues = append(issues, Issue{
					Code:      CodeStaleInitiatedRequest,
					Message:   fmt.Sprintf("booking request %s is stale in initiated state older than %dh", r.ID, timeoutHours),
					RecordIDs: []string{"request:" + r.ID},
				})
			}
		}

		if status == "paid" && (r.BookingID == nil || *r.BookingID == "") {
			issues = append(issues, Issue{
				Code:      CodePaidRequestWithoutBooking,
				Message:   fmt.Sprintf("booking request %s is paid but is not linked to a booking", r.ID),
				RecordIDs: []string{"request:" + r.ID},
			})
		}

		if status == "paid_needs_review" {
			summary.ReviewBookingRequests++
			issues = append(issues, Issue{
				Code:      CodePaidRequestNeedsReview,
				Message:   fmt.Sprintf("booking request %s requires manual payment review", r.ID),
				RecordIDs: []string{"request:" + r.ID},
			})
		}

		note(reference, "request:"+r.ID)
	}

	for _, reference := range refOrder {
		holders := refHolders[reference]
		if len(holders) < 2 {
			continue
		}
		issues = append(issues, Issue{
			Code:             CodeDuplicatePaymentReference,
			Message:          fmt.Sprintf("payment reference %s is used by multiple records", reference),
			RecordIDs:        holders,
			PaymentReference: reference,
		})
	}

	summary.IssueCount = len(issues)
	return Result{Summary: summary, Issues: issues}
}
