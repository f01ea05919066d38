package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/WillSuttie/MvcBean/app/beans"
	"github.com/WillSuttie/MvcBean/app/images"
	"github.com/WillSuttie/MvcBean/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// --- Mock Service ---

type MockBeanService struct {
	Beans     []models.Bean
	Err       error
	SaveErr   error
	Removed   bool
	Deleted   bool
	ColourHex string

	lastPage     int
	lastPageSize int
	lastID       uint
	lastSaved    *models.Bean
	lastUpload   *images.Upload
	lastIsNew    bool
}

func (m *MockBeanService) List(ctx context.Context, page, pageSize int) (*beans.Page, error) {
	m.lastPage = page
	m.lastPageSize = pageSize
	if m.Err != nil {
		return nil, m.Err
	}

	start := (page - 1) * pageSize
	if start > len(m.Beans) {
		start = len(m.Beans)
	}
	end := start + pageSize
	if end > len(m.Beans) {
		end = len(m.Beans)
	}

	total := int64(len(m.Beans))
	return &beans.Page{
		Beans:      m.Beans[start:end],
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}, nil
}

func (m *MockBeanService) GetByID(ctx context.Context, id uint) (*models.Bean, error) {
	m.lastID = id
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Beans {
		if m.Beans[i].ID == id {
			return &m.Beans[i], nil
		}
	}
	return nil, beans.ErrNotFound
}

func (m *MockBeanService) Save(ctx context.Context, candidate *models.Bean, upload *images.Upload, isNew bool) (*models.Bean, error) {
	m.lastSaved = candidate
	m.lastUpload = upload
	m.lastIsNew = isNew
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}

	saved := *candidate
	if isNew {
		saved.ID = 42
	}
	if saved.ImagePath == "" {
		saved.ImagePath = models.PlaceholderImagePath
	}
	return &saved, nil
}

func (m *MockBeanService) RemoveImage(ctx context.Context, id uint) (bool, error) {
	m.lastID = id
	return m.Removed, m.Err
}

func (m *MockBeanService) Delete(ctx context.Context, id uint) (bool, error) {
	m.lastID = id
	return m.Deleted, m.Err
}

func (m *MockBeanService) AverageColour(ctx context.Context, id uint) (string, error) {
	m.lastID = id
	return m.ColourHex, m.Err
}

func mockBeans() []models.Bean {
	return []models.Bean{
		{ID: 1, Name: "Arabica", SaleDate: models.NewDate(2025, time.January, 1), Aroma: "Fruity", ColourHex: "#8B4513", PricePer100g: decimal.RequireFromString("5.50"), ImagePath: models.PlaceholderImagePath},
		{ID: 2, Name: "Liberica", SaleDate: models.NewDate(2025, time.January, 3), PricePer100g: decimal.RequireFromString("6.25"), ImagePath: "/images/2025-01-03_liberica.png"},
		{ID: 3, Name: "Robusta", SaleDate: models.NewDate(2025, time.January, 2), Aroma: "Earthy", PricePer100g: decimal.RequireFromString("4.00"), ImagePath: models.PlaceholderImagePath},
	}
}

// --- Tests: GET /admin/beans ---

func TestHandleList(t *testing.T) {
	testCases := []struct {
		name               string
		query              string
		mockSetup          func() *MockBeanService
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkServiceCall   func(t *testing.T, svc *MockBeanService)
	}{
		{
			name: "Default pagination",
			mockSetup: func() *MockBeanService {
				return &MockBeanService{Beans: mockBeans()}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, int64(3), resp.Total)
				assert.Equal(t, 1, resp.TotalPages)
				assert.Len(t, resp.Beans, 3)
				assert.Equal(t, "Arabica", resp.Beans[0].Name)
				assert.Equal(t, "2025-01-01", resp.Beans[0].SaleDate)
				assert.Equal(t, 5.5, resp.Beans[0].PricePer100g)
			},
			checkServiceCall: func(t *testing.T, svc *MockBeanService) {
				assert.Equal(t, 1, svc.lastPage)
				assert.Equal(t, 10, svc.lastPageSize)
			},
		},
		{
			name:  "Second page of two",
			query: "?page=2&pageSize=2",
			mockSetup: func() *MockBeanService {
				return &MockBeanService{Beans: mockBeans()}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, 2, resp.Page)
				assert.Equal(t, 2, resp.TotalPages)
				assert.Len(t, resp.Beans, 1)
				assert.Equal(t, "Robusta", resp.Beans[0].Name)
			},
		},
		{
			name:  "Page size is clamped",
			query: "?pageSize=1000",
			mockSetup: func() *MockBeanService {
				return &MockBeanService{Beans: mockBeans()}
			},
			expectedStatusCode: http.StatusOK,
			checkServiceCall: func(t *testing.T, svc *MockBeanService) {
				assert.Equal(t, beans.MaxPageSize, svc.lastPageSize)
			},
		},
		{
			name:  "Invalid page falls back to first",
			query: "?page=-3&pageSize=0",
			mockSetup: func() *MockBeanService {
				return &MockBeanService{Beans: mockBeans()}
			},
			expectedStatusCode: http.StatusOK,
			checkServiceCall: func(t *testing.T, svc *MockBeanService) {
				assert.Equal(t, 1, svc.lastPage)
				assert.Equal(t, 1, svc.lastPageSize)
			},
		},
		{
			name: "Service error",
			mockSetup: func() *MockBeanService {
				return &MockBeanService{Err: &beans.StorageError{Op: "list beans", Err: errors.New("db down")}}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "Failed to retrieve beans", errResp["error"])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			svc := tc.mockSetup()
			handler := NewCatalogHandler(svc, 10)
			req := httptest.NewRequest(http.MethodGet, "/"+tc.query, nil)
			rec := httptest.NewRecorder()

			// Act
			handler.Routes().ServeHTTP(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
			if tc.checkServiceCall != nil {
				tc.checkServiceCall(t, svc)
			}
		})
	}
}
