package reconcile

import (
	"fmt"
	"strings"
)

// FormatReport renders a result for humans and log scrapers alike. The issue
// lines are machine-parseable: [CODE] message | ref=... | records=a,b.
func FormatReport(result Result) string {
	var b strings.Builder
	b.WriteString("Payment Reconciliation Report\n")
	fmt.Fprintf(&b, "Scanned bookings: %d\n", result.Summary.ScannedBookings)
	fmt.Fprintf(&b, "Scanned booking requests: %d\n", result.Summary.ScannedBookingRequests)
	fmt.Fprintf(&b, "Paid bookings: %d\n", result.Summary.PaidBookings)
	fmt.Fprintf(&b, "Pending bookings: %d\n", result.Summary.PendingBookings)
	fmt.Fprintf(&b, "Initiated booking requests: %d\n", result.Summary.InitiatedBookingRequests)
	fmt.Fprintf(&b, "Review booking requests: %d\n", result.Summary.ReviewBookingRequests)
	fmt.Fprintf(&b, "Issues found: %d", result.Summary.IssueCount)

	if len(result.Issues) == 0 {
		b.WriteString("\nNo issues detected.")
		return b.String()
	}

	for _, issue := range result.Issues {
		refPart := ""
		if issue.PaymentReference != "" {
			refPart = " | ref=" + issue.PaymentReference
		}
		fmt.Fprintf(&b, "\n[%s] %s%s | records=%s",
			issue.Code, issue.Message, refPart, strings.Join(issue.RecordIDs, ","))
	}

	return b.String()
}
