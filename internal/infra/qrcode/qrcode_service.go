package qrcode

import (
	"encoding/json"

	"cleancity/internal/domain/service"
	"cleancity/internal/errors"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

// acknowledgeType marks payloads residents scan to acknowledge a pickup.
const acknowledgeType = "acknowledge"

type qrcodeService struct {
	size                 int
	errorCorrectionLevel qrcode.RecoveryLevel
}

// QRCodeData represents the QR code data structure
type QRCodeData struct {
	AllotmentID string `json:"allotment_id"`
	Type        string `json:"type"`
}

// NewQRCodeService creates a new QR code service instance
func NewQRCodeService(size int, errorCorrectionLevel string) service.QRCodeService {
	var level qrcode.RecoveryLevel
	switch errorCorrectionLevel {
	case "L":
		level = qrcode.Low
	case "M":
		level = qrcode.Medium
	case "Q":
		level = qrcode.High
	case "H":
		level = qrcode.Highest
	default:
		level = qrcode.Medium
	}

	return &qrcodeService{
		size:                 size,
		errorCorrectionLevel: level,
	}
}

// GenerateAcknowledgeQR renders the allotment's acknowledge payload as PNG
func (s *qrcodeService) GenerateAcknowledgeQR(allotmentID uuid.UUID) ([]byte, error) {
	data := QRCodeData{
		AllotmentID: allotmentID.String(),
		Type:        acknowledgeType,
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal QR code data")
	}

	qrCode, err := qrcode.New(string(jsonData), s.errorCorrectionLevel)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create QR code")
	}

	pngBytes, err := qrCode.PNG(s.size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate PNG")
	}

	return pngBytes, nil
}

// ParseAcknowledgeQR parses scanned QR text and returns the allotment ID
func (s *qrcodeService) ParseAcknowledgeQR(qrData string) (uuid.UUID, error) {
	var data QRCodeData
	if err := json.Unmarshal([]byte(qrData), &data); err != nil {
		return uuid.Nil, errors.Wrap(err, "failed to unmarshal QR code data")
	}

	if data.Type != acknowledgeType {
		return uuid.Nil, errors.Errorf("invalid QR code type: %s", data.Type)
	}

	allotmentID, err := uuid.Parse(data.AllotmentID)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "failed to parse allotment ID")
	}

	return allotmentID, nil
}
