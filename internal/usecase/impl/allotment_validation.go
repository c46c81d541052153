package impl

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"cleancity/internal/domain/entity"
	domainerrors "cleancity/internal/domain/errors"
	"cleancity/internal/usecase"

	"github.com/paulmach/orb"
)

// worldBound is the valid WGS84 range; orb points are (lng, lat).
var worldBound = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

func validateCreateInput(input *usecase.CreateAllotmentInput) error {
	if input == nil {
		return domainerrors.ErrValidationFailed.WithDetails("request body is required")
	}

	input.InchargerID = entity.CanonicalIdentity(input.InchargerID)
	input.LabourID = entity.CanonicalIdentity(input.LabourID)
	input.Street = strings.TrimSpace(input.Street)
	input.Date = strings.TrimSpace(input.Date)
	input.Time = strings.TrimSpace(input.Time)

	if err := requireFields(map[string]string{
		"inchargerId": input.InchargerID,
		"labourId":    input.LabourID,
		"street":      input.Street,
		"date":        input.Date,
		"time":        input.Time,
	}); err != nil {
		return err
	}

	return validateDate(input.Date)
}

func validateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("date must be YYYY-MM-DD, got " + date)
	}

	return nil
}

// requireFields reports every empty field, in name order.
func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	sort.Strings(missing)

	return domainerrors.ErrValidationFailed.WithDetails("missing required fields: " + strings.Join(missing, ", "))
}

// resolveCoordinates coerces non-numeric input to 0 unless strict, and
// always rejects values outside the WGS84 range.
func resolveCoordinates(lat, lng usecase.Coordinate, strict bool) (float64, float64, error) {
	if strict && (!lat.Numeric || !lng.Numeric) {
		return 0, 0, domainerrors.ErrInvalidCoordinates.WithDetails("latitude and longitude must be numeric")
	}

	point := orb.Point{lng.Value, lat.Value}
	if !worldBound.Contains(point) {
		return 0, 0, domainerrors.ErrInvalidCoordinates.WithDetails(
			"got " + formatFloat(lat.Value) + "," + formatFloat(lng.Value))
	}

	return point.Lat(), point.Lon(), nil
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}

	return fallback
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
