package booking

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/kinogo/kinogo/internal/domain"
	"github.com/kinogo/kinogo/internal/email"
	"github.com/kinogo/kinogo/internal/qr"
)

// sendConfirmation mails the customer their booked tickets with one QR code
// per ticket. It runs after commit and must never fail the booking; any
// error is logged and dropped.
func (s *Service) sendConfirmation(ctx context.Context, owt *domain.OrderWithTickets) {
	if s.sender == nil {
		return
	}

	user, err := s.store.GetUser(ctx, owt.Order.UserID)
	if err != nil {
		s.logger.Warn("confirmation mail skipped, user lookup failed",
			"order_id", owt.Order.ID, "error", err)
		return
	}

	body, attachments, err := s.confirmationBody(ctx, owt)
	if err != nil {
		s.logger.Warn("confirmation mail skipped, body build failed",
			"order_id", owt.Order.ID, "error", err)
		return
	}

	msg := email.Message{
		To:          user.Email,
		Subject:     fmt.Sprintf("Your tickets for order #%d", owt.Order.ID),
		HTMLBody:    body,
		Attachments: attachments,
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Warn("confirmation mail failed",
			"order_id", owt.Order.ID, "to", user.Email, "error", err)
	}
}

func (s *Service) confirmationBody(ctx context.Context, owt *domain.OrderWithTickets) (string, []email.Attachment, error) {
	seatIDs := make([]int64, 0, len(owt.Tickets))
	for _, t := range owt.Tickets {
		seatIDs = append(seatIDs, t.SeatID)
	}
	seats, err := s.store.SeatsByIDs(ctx, seatIDs)
	if err != nil {
		return "", nil, err
	}
	labels := make(map[int64]string, len(seats))
	for _, seat := range seats {
		labels[seat.ID] = seat.Label()
	}

	shows := make(map[int64]*domain.Show)
	for _, id := range showIDs(owt.Tickets) {
		show, err := s.store.GetShow(ctx, id)
		if err != nil {
			return "", nil, err
		}
		shows[id] = show
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h1>Thank you for your booking!</h1>")
	fmt.Fprintf(&b, "<p>Order #%d, total %d.%02d %s</p>",
		owt.Order.ID, owt.Order.TotalCents/100, owt.Order.TotalCents%100, s.cfg.Currency)

	attachments := make([]email.Attachment, 0, len(owt.Tickets))
	for _, t := range owt.Tickets {
		show := shows[t.ShowID]
		label := labels[t.SeatID]

		png, err := qr.TicketPNG(t.ID, t.ShowID, label)
		if err != nil {
			return "", nil, err
		}
		attachments = append(attachments, email.Attachment{
			Filename: fmt.Sprintf("ticket-%d.png", t.ID),
			Content:  png,
		})

		fmt.Fprintf(&b, "<div><h2>Seat %s</h2>", label)
		fmt.Fprintf(&b, "<p>%s, %s</p>",
			show.StartsAt.Format("Mon, 02 Jan 2006 15:04"), show.Language)
		fmt.Fprintf(&b, `<img src=%q alt="ticket qr code"/></div>`,
			"data:image/png;base64,"+base64.StdEncoding.EncodeToString(png))
	}
	return b.String(), attachments, nil
}
