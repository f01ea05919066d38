package beans

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/WillSuttie/MvcBean/app/images"
	"github.com/WillSuttie/MvcBean/models"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	textTag   = "beantext"
	colourTag = "hexcolour"
)

var (
	textRegex   = regexp.MustCompile(`^[a-zA-Z0-9\s&'()#!?,.-]{3,60}$`)
	colourRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// PriceBounds is the inclusive range accepted for PricePer100g.
type PriceBounds struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// DefaultPriceBounds returns £0.01 to £10,000.00.
func DefaultPriceBounds() PriceBounds {
	return PriceBounds{
		Min: decimal.New(1, -2),
		Max: decimal.New(10000, 0),
	}
}

func (b PriceBounds) contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(b.Min) && price.LessThanOrEqual(b.Max)
}

// Validator decides whether a candidate bean may be persisted.
type Validator struct {
	bounds PriceBounds
	fields *validator.Validate
}

// mustRegister binds tag to a pattern match. Tags are package constants, so a
// failed registration is a programming error.
func mustRegister(v *validator.Validate, tag string, pattern *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func NewValidator(bounds PriceBounds) *Validator {
	v := validator.New()
	mustRegister(v, textTag, textRegex)
	mustRegister(v, colourTag, colourRegex)

	return &Validator{
		bounds: bounds,
		fields: v,
	}
}

// Validate runs the checks in a fixed order and returns the first failure
// as a *ValidationError. existing holds the beans to check the sale date
// against; the bean with excludeID is ignored so an update does not
// conflict with itself. Validate has no side effects.
func (v *Validator) Validate(candidate *models.Bean, existing []models.Bean, excludeID uint) error {
	if candidate.SaleDate.IsZero() {
		return &ValidationError{
			Kind:    InvalidFormat,
			Field:   "saleDate",
			Message: "A sale date is required.",
		}
	}

	for _, other := range existing {
		if other.SaleDate == candidate.SaleDate && other.ID != excludeID {
			return &ValidationError{
				Kind:            DateConflict,
				Field:           "saleDate",
				ConflictingName: other.Name,
				Message:         fmt.Sprintf("The Sale Date conflicts with another bean: '%s'. Please choose a different date.", other.Name),
			}
		}
	}

	if strings.TrimSpace(candidate.Name) == "" {
		return &ValidationError{
			Kind:    MissingName,
			Field:   "name",
			Message: "A name is required.",
		}
	}
	if v.fields.Var(candidate.Name, textTag) != nil {
		return &ValidationError{
			Kind:    InvalidFormat,
			Field:   "name",
			Message: "The Name field contains invalid characters or is not between 3 and 60 characters.",
		}
	}

	if candidate.Aroma != "" && v.fields.Var(candidate.Aroma, textTag) != nil {
		return &ValidationError{
			Kind:    InvalidFormat,
			Field:   "aroma",
			Message: "The Aroma field contains invalid characters or is not between 3 and 60 characters.",
		}
	}

	if candidate.ColourHex != "" && v.fields.Var(candidate.ColourHex, colourTag) != nil {
		return &ValidationError{
			Kind:    InvalidFormat,
			Field:   "colour",
			Message: "The Colour field must be a valid hexadecimal colour code (e.g., #FFFFFF).",
		}
	}

	if !v.bounds.contains(candidate.PricePer100g) {
		return &ValidationError{
			Kind:  PriceOutOfRange,
			Field: "pricePer100g",
			Message: fmt.Sprintf("Price must be between £%s and £%s per 100g.",
				v.bounds.Min.StringFixed(models.PriceScale), v.bounds.Max.StringFixed(models.PriceScale)),
		}
	}

	if candidate.ImagePath != "" && !images.HasAllowedExtension(candidate.ImagePath) {
		return invalidImageType()
	}

	return nil
}

func invalidImageType() *ValidationError {
	return &ValidationError{
		Kind:    InvalidImageType,
		Field:   "image",
		Message: fmt.Sprintf("The image file must be one of the following types: %s.", images.AllowedExtensions()),
	}
}
