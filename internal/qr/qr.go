// Package qr renders ticket QR codes as data URLs embeddable in e-mails.
package qr

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"
)

var ErrMissingDetails = errors.New("qr: ticket details incomplete")

// TicketPNG encodes a compact ticket descriptor into a PNG QR code. All
// fields are required; a code that cannot be checked at the door is worse
// than none.
func TicketPNG(ticketID, showID int64, seatLabel string) ([]byte, error) {
	const op = "qr.TicketPNG"

	if ticketID == 0 || showID == 0 || seatLabel == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingDetails)
	}

	payload := fmt.Sprintf("kinogo:ticket:%d:show:%d:seat:%s", ticketID, showID, seatLabel)
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return png, nil
}

// TicketDataURL renders the same code as a data URL for inline <img> use.
func TicketDataURL(ticketID, showID int64, seatLabel string) (string, error) {
	png, err := TicketPNG(ticketID, showID, seatLabel)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
