package payment

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/AlexZinkM/confidential-pay/internal/model"

	"github.com/skip2/go-qrcode"
)

// Checkout builds a Solana Pay transfer request for an open intent.
// The amount is deliberately absent: it only exists encrypted.
func (s *Service) Checkout(ctx context.Context, id string) (*model.CheckoutResponse, error) {
	intent, err := s.store.GetIntentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if intent.Status != model.IntentStatusPending && intent.Status != model.IntentStatusProcessing {
		return nil, &StateError{ID: id, Status: intent.Status, Event: "checkout", Err: ErrInvalidState}
	}

	link := checkoutURL(intent)
	qrCode, err := generateQRCode(link)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	return &model.CheckoutResponse{
		ID:  intent.ID,
		URL: link,
		QR:  qrCode,
	}, nil
}

// checkoutURL renders solana:<recipient>?memo=<intent id>&label=...&message=...
func checkoutURL(intent *model.PaymentIntent) string {
	q := url.Values{}
	q.Set("memo", intent.ID)
	if intent.MerchantID != "" {
		q.Set("label", intent.MerchantID)
	}
	if intent.Description != "" {
		q.Set("message", intent.Description)
	}
	return "solana:" + intent.Recipient + "?" + q.Encode()
}

// generateQRCode generates QR code of content in base64
func generateQRCode(content string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	// Get PNG image
	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
