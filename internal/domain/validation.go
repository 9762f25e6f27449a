package domain

import (
	"strings"

	"github.com/aidbridge-api/internal/pkg/validate"
)

// requestRules carries the field constraints of a new request. Field order
// is the order constraints are reported in.
type requestRules struct {
	Title       string  `json:"title" validate:"min=5,max=100"`
	Description string  `json:"description" validate:"min=20,max=1000"`
	Category    string  `json:"category" validate:"oneof=food clothing shelter medical transportation education other"`
	Urgency     string  `json:"urgency" validate:"oneof=low medium high critical"`
	Address     string  `json:"location_address" validate:"min=5,max=200"`
	Lat         float64 `json:"location_lat" validate:"gte=-90,lte=90"`
	Lng         float64 `json:"location_lng" validate:"gte=-180,lte=180"`
}

var requestMessages = map[string]string{
	"title.min":            "Title must be at least 5 characters",
	"title.max":            "Title too long",
	"description.min":      "Description must be at least 20 characters",
	"description.max":      "Description too long",
	"category.oneof":       "Invalid category",
	"urgency.oneof":        "Invalid urgency",
	"location_address.min": "Address must be at least 5 characters",
	"location_address.max": "Address too long",
	"location_lat.gte":     "Latitude out of range",
	"location_lat.lte":     "Latitude out of range",
	"location_lng.gte":     "Longitude out of range",
	"location_lng.lte":     "Longitude out of range",
}

// ValidatedRequest is a CreateRequestInput that passed every constraint.
type ValidatedRequest struct {
	Title       string
	Description string
	Category    Category
	Urgency     Urgency
	Location    Location
}

// ValidateRequest checks in against the request field constraints and
// returns the first violation as a *ValidationError.
func ValidateRequest(in CreateRequestInput) (ValidatedRequest, error) {
	r := requestRules{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Urgency:     strings.TrimSpace(in.Urgency),
		Address:     strings.TrimSpace(in.Address),
		Lat:         in.Lat,
		Lng:         in.Lng,
	}
	if err := firstViolation(r, requestMessages); err != nil {
		return ValidatedRequest{}, err
	}
	return ValidatedRequest{
		Title:       r.Title,
		Description: r.Description,
		Category:    Category(r.Category),
		Urgency:     Urgency(r.Urgency),
		Location:    Location{Lat: r.Lat, Lng: r.Lng, Address: r.Address},
	}, nil
}

type coordinateRules struct {
	Lat float64 `json:"location_lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"location_lng" validate:"gte=-180,lte=180"`
}

// ValidateCoordinates range-checks a latitude/longitude pair.
func ValidateCoordinates(lat, lng float64) error {
	return firstViolation(coordinateRules{Lat: lat, Lng: lng}, requestMessages)
}

type signUpRules struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"min=6,max=100"`
	FullName string `json:"full_name" validate:"min=2,max=100"`
	Role     string `json:"role" validate:"oneof=user helper"`
}

var signUpMessages = map[string]string{
	"email.required": "Invalid email address",
	"email.email":    "Invalid email address",
	"email.max":      "Email too long",
	"password.min":   "Password must be at least 6 characters",
	"password.max":   "Password too long",
	"full_name.min":  "Name must be at least 2 characters",
	"full_name.max":  "Name too long",
	"role.oneof":     "Invalid role",
}

// ValidateSignUp checks a sign-up form; like ValidateRequest it reports only
// the first violation.
func ValidateSignUp(in SignUpRequest) error {
	return firstViolation(signUpRules{
		Email:    strings.TrimSpace(in.Email),
		Password: in.Password,
		FullName: strings.TrimSpace(in.FullName),
		Role:     in.Role,
	}, signUpMessages)
}

func firstViolation(s interface{}, messages map[string]string) error {
	fe := validate.First(s)
	if fe == nil {
		return nil
	}
	msg, ok := messages[fe.Field+"."+fe.Tag]
	if !ok {
		msg = fe.Field + " is invalid"
	}
	return &ValidationError{Field: fe.Field, Message: msg}
}
