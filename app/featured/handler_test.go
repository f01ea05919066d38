package featured

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/WillSuttie/MvcBean/app/beans"
	"github.com/WillSuttie/MvcBean/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// --- Mock Provider ---

type MockTodayProvider struct {
	Bean *models.Bean
	Err  error
}

func (m *MockTodayProvider) Today(ctx context.Context) (*models.Bean, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bean == nil {
		return nil, beans.ErrNotFound
	}
	return m.Bean, nil
}

// --- Tests: GET /api/beans/today ---

func TestHandleBeanOfTheDay(t *testing.T) {
	arabica := &models.Bean{
		ID:           1,
		Name:         "Arabica",
		SaleDate:     models.NewDate(2025, time.January, 1),
		Aroma:        "Fruity",
		ColourHex:    "#8B4513",
		PricePer100g: decimal.RequireFromString("5.50"),
		ImagePath:    "/images/2025-01-01_arabica.jpg",
	}

	testCases := []struct {
		name               string
		mockSetup          func() *MockTodayProvider
		forwardedProto     string
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name: "Success",
			mockSetup: func() *MockTodayProvider {
				return &MockTodayProvider{Bean: arabica}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp BeanOfTheDayResponse
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, uint(1), resp.ID)
				assert.Equal(t, "Arabica", resp.Name)
				assert.Equal(t, "2025-01-01", resp.SaleDate)
				assert.Equal(t, 5.5, resp.PricePer100g)
				assert.Equal(t, "http://beans.example.com/images/2025-01-01_arabica.jpg", resp.Image)
			},
		},
		{
			name: "Behind a TLS proxy with placeholder image",
			mockSetup: func() *MockTodayProvider {
				return &MockTodayProvider{Bean: &models.Bean{ID: 2, Name: "Robusta", PricePer100g: decimal.RequireFromString("4")}}
			},
			forwardedProto:     "https",
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp BeanOfTheDayResponse
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, "https://beans.example.com/images/placeholder.jpg", resp.Image)
			},
		},
		{
			name: "No bean today",
			mockSetup: func() *MockTodayProvider {
				return &MockTodayProvider{}
			},
			expectedStatusCode: http.StatusNotFound,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "No beans available for today's date.", errResp["error"])
			},
		},
		{
			name: "Storage error",
			mockSetup: func() *MockTodayProvider {
				return &MockTodayProvider{Err: &beans.StorageError{Op: "load bean by sale date", Err: errors.New("db down")}}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "Failed to fetch bean of the day", errResp["error"])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			handler := NewFeaturedHandler(tc.mockSetup())
			req := httptest.NewRequest(http.MethodGet, "/api/beans/today", nil)
			req.Host = "beans.example.com"
			if tc.forwardedProto != "" {
				req.Header.Set("X-Forwarded-Proto", tc.forwardedProto)
			}
			rec := httptest.NewRecorder()

			// Act
			handler.HandleBeanOfTheDay(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
		})
	}
}
