package service

import (
	"github.com/google/uuid"
)

// QRCodeService defines the interface for QR code generation and parsing services
type QRCodeService interface {
	// GenerateAcknowledgeQR generates the code residents scan to acknowledge a pickup
	GenerateAcknowledgeQR(allotmentID uuid.UUID) ([]byte, error)

	// ParseAcknowledgeQR parses QR code data and returns the allotment ID
	ParseAcknowledgeQR(qrData string) (uuid.UUID, error)
}
