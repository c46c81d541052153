package qrcode

import (
	"bytes"
	"encoding/json"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acknowledgePayload(t *testing.T, allotmentID, typ string) string {
	t.Helper()

	jsonData, err := json.Marshal(QRCodeData{AllotmentID: allotmentID, Type: typ})
	require.NoError(t, err)

	return string(jsonData)
}

func TestQRCodeService_GenerateAcknowledgeQR(t *testing.T) {
	tests := []struct {
		name  string
		size  int
		level string
	}{
		{"Small low", 128, "L"},
		{"Medium default", 256, "M"},
		{"Large high", 512, "Q"},
		{"Highest", 256, "H"},
		{"Unknown level falls back", 256, "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewQRCodeService(tt.size, tt.level)

			qrBytes, err := service.GenerateAcknowledgeQR(uuid.New())
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(qrBytes))
			require.NoError(t, err)
			assert.Equal(t, tt.size, img.Bounds().Dx())
		})
	}
}

func TestQRCodeService_ParseAcknowledgeQR(t *testing.T) {
	service := NewQRCodeService(256, "M")
	allotmentID := uuid.New()

	parsedID, err := service.ParseAcknowledgeQR(acknowledgePayload(t, allotmentID.String(), "acknowledge"))
	require.NoError(t, err)
	assert.Equal(t, allotmentID, parsedID)
}

func TestQRCodeService_ParseAcknowledgeQR_Errors(t *testing.T) {
	service := NewQRCodeService(256, "M")

	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{"invalid json", "invalid json", "failed to unmarshal QR code data"},
		{"wrong type", acknowledgePayload(t, uuid.NewString(), "subscription"), "invalid QR code type"},
		{"invalid uuid", acknowledgePayload(t, "not-a-valid-uuid", "acknowledge"), "failed to parse allotment ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ParseAcknowledgeQR(tt.payload)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
