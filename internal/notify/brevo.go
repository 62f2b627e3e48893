package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const brevoSendURL = "https://api.brevo.com/v3/smtp/email"

// BrevoNotifier sends transactional email through the Brevo SMTP API.
type BrevoNotifier struct {
	apiKey       string
	senderEmail  string
	senderName   string
	managerEmail string
	client       *http.Client
	baseURL      string
}

type BrevoConfig struct {
	APIKey       string
	SenderEmail  string
	SenderName   string
	ManagerEmail string
	// BaseURL overrides the Brevo endpoint; tests point it at a local server.
	BaseURL string
}

func NewBrevoNotifier(cfg BrevoConfig) *BrevoNotifier {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = brevoSendURL
	}
	return &BrevoNotifier{
		apiKey:       cfg.APIKey,
		senderEmail:  cfg.SenderEmail,
		senderName:   cfg.SenderName,
		managerEmail: cfg.ManagerEmail,
		client:       &http.Client{Timeout: 15 * time.Second},
		baseURL:      baseURL,
	}
}

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

func (n *BrevoNotifier) send(ctx context.Context, toEmail, toName, subject, htmlContent string) error {
	payload := brevoPayload{
		Sender:      map[string]string{"email": n.senderEmail, "name": n.senderName},
		To:          []map[string]string{{"email": toEmail, "name": toName}},
		Subject:     subject,
		HTMLContent: htmlContent,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("build email request failed: %w", err)
	}
	req.Header.Set("api-key", n.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("email provider returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func formatStay(checkIn, checkOut time.Time) string {
	return fmt.Sprintf("%s to %s", checkIn.Format("Mon, 02 Jan 2006 15:04"), checkOut.Format("Mon, 02 Jan 2006 15:04"))
}

func formatNaira(kobo int64) string {
	return fmt.Sprintf("₦%d.%02d", kobo/100, kobo%100)
}

func (n *BrevoNotifier) SendGuestConfirmation(ctx context.Context, in GuestConfirmation) error {
	subject := "Your booking is confirmed"
	html := fmt.Sprintf(
		"<p>Dear %s,</p><p>Your %s reservation is confirmed.</p><p>Stay: %s</p><p>Total: %s</p>",
		in.GuestName, in.RoomTypeName, formatStay(in.CheckIn, in.CheckOut), formatNaira(in.TotalPriceKobo),
	)
	return n.send(ctx, in.GuestEmail, in.GuestName, subject, html)
}

func (n *BrevoNotifier) SendOperatorAlert(ctx context.Context, in OperatorAlert) error {
	subject := fmt.Sprintf("New booking %s", in.BookingID)
	html := fmt.Sprintf(
		"<p>Booking %s</p><p>Guest: %s (%s)</p><p>Room type: %s</p><p>Stay: %s</p><p>Total: %s</p>",
		in.BookingID, in.GuestName, in.GuestEmail, in.RoomTypeName,
		formatStay(in.CheckIn, in.CheckOut), formatNaira(in.TotalPriceKobo),
	)
	return n.send(ctx, n.managerEmail, "Manager", subject, html)
}
