package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/attire/internal/domain"
)

var validate = validator.New()

const (
	defaultK     = 5
	maxDateAhead = 15 // days
	dateLayout   = "2006-01-02"
)

// recommendRequest asks for recommendations with an explicit season.
type recommendRequest struct {
	Gender string `json:"gender" validate:"required,oneof=Men Women Boys Girls Unisex"`
	Age    int    `json:"age" validate:"required,gte=15,lte=50"`
	Season string `json:"season" validate:"required,oneof=Winter Spring Summer Autumn"`
	Usage  string `json:"usage" validate:"required"`
	K      int    `json:"k" validate:"omitempty,gte=1,lte=10"`
}

// locationPoint is a WGS84 coordinate pair.
type locationPoint struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// processLocationRequest asks for recommendations with the season derived
// from the forecast at the given location. Location is a pointer so that an
// omitted field is a validation error while the literal (0, 0) coordinate is
// not: Null Island is a real, if oceanic, location and belongs to the
// land check, not to input validation.
type processLocationRequest struct {
	Gender   string         `json:"gender" validate:"required,oneof=Men Women Boys Girls Unisex"`
	Age      int            `json:"age" validate:"required,gte=15,lte=50"`
	Occasion string         `json:"occasion" validate:"required"`
	Location *locationPoint `json:"location" validate:"required"`
	Date     string         `json:"date" validate:"omitempty"`
	K        int            `json:"k" validate:"omitempty,gte=1,lte=10"`
}

// feedbackRequest is a user feedback submission.
type feedbackRequest struct {
	Rating   int    `json:"rating" validate:"required,gte=1,lte=5"`
	Feedback string `json:"feedback" validate:"required,max=2000"`
}

// knownUsages accepts both catalog casing ("Casual") and the lowercase
// occasion values the frontend sends ("casual").
var knownUsages = map[string]domain.Usage{
	"casual":       domain.UsageCasual,
	"formal":       domain.UsageFormal,
	"sports":       domain.UsageSports,
	"ethnic":       domain.UsageEthnic,
	"party":        domain.UsageParty,
	"travel":       domain.UsageTravel,
	"smart casual": domain.UsageSmartCasual,
}

// parseUsage normalizes an occasion/usage value to its catalog form.
func parseUsage(raw string) (domain.Usage, error) {
	u, ok := knownUsages[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("%w: unknown usage %q", domain.ErrValidation, raw)
	}
	return u, nil
}

// validateDate checks an optional target date: it must parse and fall within
// the forecastable window, from today up to maxDateAhead days out.
func validateDate(raw string, now time.Time) error {
	if raw == "" {
		return nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return fmt.Errorf("%w: date must be formatted as %s", domain.ErrValidation, dateLayout)
	}
	today := now.UTC().Truncate(24 * time.Hour)
	diff := d.Sub(today)
	if diff < 0 || diff > maxDateAhead*24*time.Hour {
		return fmt.Errorf("%w: date must be within %d days from today", domain.ErrValidation, maxDateAhead)
	}
	return nil
}

// validationMessage flattens validator errors into a single client-facing line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
