package beans

import (
	"strings"
	"testing"
	"time"

	"github.com/WillSuttie/MvcBean/models"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBean() *models.Bean {
	return &models.Bean{
		Name:         "Arabica",
		SaleDate:     models.NewDate(2025, time.January, 1),
		Aroma:        "Fruity",
		ColourHex:    "#8B4513",
		PricePer100g: decimal.RequireFromString("5.50"),
	}
}

func TestValidate(t *testing.T) {
	existing := []models.Bean{
		{ID: 1, Name: "Robusta", SaleDate: models.NewDate(2025, time.January, 1)},
	}

	testCases := []struct {
		name      string
		mutate    func(b *models.Bean)
		existing  []models.Bean
		excludeID uint
		wantKind  ValidationKind
		wantField string
	}{
		{
			name:   "Valid bean",
			mutate: func(b *models.Bean) {},
		},
		{
			name:   "Optional fields empty",
			mutate: func(b *models.Bean) { b.Aroma = ""; b.ColourHex = ""; b.ImagePath = "" },
		},
		{
			name:      "Date conflict",
			mutate:    func(b *models.Bean) {},
			existing:  existing,
			wantKind:  DateConflict,
			wantField: "saleDate",
		},
		{
			name:      "Date conflict with itself is ignored on update",
			mutate:    func(b *models.Bean) { b.ID = 1 },
			existing:  existing,
			excludeID: 1,
		},
		{
			name:      "Date conflict takes precedence over other errors",
			mutate:    func(b *models.Bean) { b.Name = ""; b.PricePer100g = decimal.Zero },
			existing:  existing,
			wantKind:  DateConflict,
			wantField: "saleDate",
		},
		{
			name:      "Missing sale date",
			mutate:    func(b *models.Bean) { b.SaleDate = models.Date{} },
			wantKind:  InvalidFormat,
			wantField: "saleDate",
		},
		{
			name:      "Missing name",
			mutate:    func(b *models.Bean) { b.Name = "" },
			wantKind:  MissingName,
			wantField: "name",
		},
		{
			name:      "Whitespace-only name",
			mutate:    func(b *models.Bean) { b.Name = "   " },
			wantKind:  MissingName,
			wantField: "name",
		},
		{
			name:      "Name too short",
			mutate:    func(b *models.Bean) { b.Name = "Ab" },
			wantKind:  InvalidFormat,
			wantField: "name",
		},
		{
			name:      "Name too long",
			mutate:    func(b *models.Bean) { b.Name = strings.Repeat("a", 61) },
			wantKind:  InvalidFormat,
			wantField: "name",
		},
		{
			name:   "Name with allowed punctuation",
			mutate: func(b *models.Bean) { b.Name = "Bob's (Best) #1 Roast, Really?!" },
		},
		{
			name:      "Name with disallowed character",
			mutate:    func(b *models.Bean) { b.Name = "Arabica <script>" },
			wantKind:  InvalidFormat,
			wantField: "name",
		},
		{
			name:      "Invalid aroma",
			mutate:    func(b *models.Bean) { b.Aroma = "x" },
			wantKind:  InvalidFormat,
			wantField: "aroma",
		},
		{
			name:      "Short hex colour",
			mutate:    func(b *models.Bean) { b.ColourHex = "#FFF" },
			wantKind:  InvalidFormat,
			wantField: "colour",
		},
		{
			name:      "Hex colour without hash",
			mutate:    func(b *models.Bean) { b.ColourHex = "8B4513" },
			wantKind:  InvalidFormat,
			wantField: "colour",
		},
		{
			name:      "Zero price",
			mutate:    func(b *models.Bean) { b.PricePer100g = decimal.Zero },
			wantKind:  PriceOutOfRange,
			wantField: "pricePer100g",
		},
		{
			name:   "Minimum price",
			mutate: func(b *models.Bean) { b.PricePer100g = decimal.RequireFromString("0.01") },
		},
		{
			name:   "Maximum price",
			mutate: func(b *models.Bean) { b.PricePer100g = decimal.RequireFromString("10000.00") },
		},
		{
			name:      "Price above maximum",
			mutate:    func(b *models.Bean) { b.PricePer100g = decimal.RequireFromString("10000.01") },
			wantKind:  PriceOutOfRange,
			wantField: "pricePer100g",
		},
		{
			name:   "Image with upper-case extension",
			mutate: func(b *models.Bean) { b.ImagePath = "/images/2025-01-01_bean.PNG" },
		},
		{
			name:      "Image with disallowed extension",
			mutate:    func(b *models.Bean) { b.ImagePath = "/images/2025-01-01_bean.bmp" },
			wantKind:  InvalidImageType,
			wantField: "image",
		},
	}

	v := NewValidator(DefaultPriceBounds())

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bean := validBean()
			tc.mutate(bean)

			err := v.Validate(bean, tc.existing, tc.excludeID)

			if tc.wantKind == 0 {
				assert.NoError(t, err)
				return
			}

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.wantKind, validationErr.Kind)
			assert.Equal(t, tc.wantField, validationErr.Field)
			assert.NotEmpty(t, validationErr.Message)
		})
	}
}

func TestValidate_DateConflictNamesConflictingBean(t *testing.T) {
	v := NewValidator(DefaultPriceBounds())
	existing := []models.Bean{
		{ID: 7, Name: "Robusta", SaleDate: models.NewDate(2025, time.January, 1)},
	}

	err := v.Validate(validBean(), existing, 0)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Robusta", validationErr.ConflictingName)
	assert.Contains(t, validationErr.Error(), "'Robusta'")
}

func TestValidate_CustomPriceBounds(t *testing.T) {
	v := NewValidator(PriceBounds{
		Min: decimal.RequireFromString("0.01"),
		Max: decimal.RequireFromString("99999.99"),
	})
	bean := validBean()
	bean.PricePer100g = decimal.RequireFromString("50000")

	assert.NoError(t, v.Validate(bean, nil, 0))
}

func TestNewValidator_RegistersPatternTags(t *testing.T) {
	v := NewValidator(DefaultPriceBounds())

	assert.NoError(t, v.fields.Var("Arabica", textTag))
	assert.Error(t, v.fields.Var("<b>", textTag))
	assert.NoError(t, v.fields.Var("#8B4513", colourTag))
	assert.Error(t, v.fields.Var("brown", colourTag))
}

func TestMustRegister_PanicsOnRejectedTag(t *testing.T) {
	assert.PanicsWithValue(t, "register  validation: function Key cannot be empty", func() {
		mustRegister(validator.New(), "", textRegex)
	})
}
