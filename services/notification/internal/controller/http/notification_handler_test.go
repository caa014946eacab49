package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"thankatech/pkg/logger"
	"thankatech/services/notification/internal/entity"
	"thankatech/services/notification/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockNotificationUseCase is a mock implementation of NotificationUseCase
type MockNotificationUseCase struct {
	mock.Mock
}

func (m *MockNotificationUseCase) SendNotification(userID, title, message, notificationType string, data map[string]interface{}) (*entity.Notification, error) {
	args := m.Called(userID, title, message, notificationType, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Notification), args.Error(1)
}

func (m *MockNotificationUseCase) GetNotifications(userID string, limit, offset int) ([]entity.Notification, int64, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationUseCase) MarkAllRead(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationUseCase) ClearNotifications(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationUseCase) GetQueueStatus() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationUseCase) HandleThankYouNotification(task map[string]interface{}) error {
	args := m.Called(task)
	return args.Error(0)
}

func (m *MockNotificationUseCase) HandleTokenNotification(task map[string]interface{}) error {
	args := m.Called(task)
	return args.Error(0)
}

var _ usecase.NotificationUseCase = (*MockNotificationUseCase)(nil)

func setupNotificationTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestGetNotifications_Unauthorized(t *testing.T) {
	handler := &NotificationHandler{
		logger: logger.New(),
	}

	router := setupNotificationTestRouter()
	router.GET("/notifications", handler.GetNotifications)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Contains(t, response["error"], "Unauthorized")
}

func TestGetNotifications_Success(t *testing.T) {
	mockUseCase := new(MockNotificationUseCase)
	handler := &NotificationHandler{
		notificationUseCase: mockUseCase,
		logger:              logger.New(),
	}

	router := setupNotificationTestRouter()
	router.GET("/notifications", func(c *gin.Context) {
		c.Set("user_id", "user-123")
		handler.GetNotifications(c)
	})

	mockUseCase.On("GetNotifications", "user-123", 50, 0).
		Return([]entity.Notification{
			{UserID: "user-123", Title: "You've been thanked!", Type: "thank_you"},
		}, int64(1), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "thanked")
	mockUseCase.AssertExpectations(t)
}

func TestClearNotifications_Unauthorized(t *testing.T) {
	handler := &NotificationHandler{
		logger: logger.New(),
	}

	router := setupNotificationTestRouter()
	router.DELETE("/notifications", handler.ClearNotifications)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/notifications", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClearNotifications_Success(t *testing.T) {
	mockUseCase := new(MockNotificationUseCase)
	handler := &NotificationHandler{
		notificationUseCase: mockUseCase,
		logger:              logger.New(),
	}

	router := setupNotificationTestRouter()
	router.DELETE("/notifications", func(c *gin.Context) {
		c.Set("user_id", "user-123")
		handler.ClearNotifications(c)
	})

	mockUseCase.On("ClearNotifications", "user-123").Return(int64(3), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/notifications", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, float64(3), response["deleted"])
	mockUseCase.AssertExpectations(t)
}

func TestMarkAllRead_Success(t *testing.T) {
	mockUseCase := new(MockNotificationUseCase)
	handler := &NotificationHandler{
		notificationUseCase: mockUseCase,
		logger:              logger.New(),
	}

	router := setupNotificationTestRouter()
	router.POST("/notifications/read", func(c *gin.Context) {
		c.Set("user_id", "user-123")
		handler.MarkAllRead(c)
	})

	mockUseCase.On("MarkAllRead", "user-123").Return(int64(2), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/notifications/read", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, float64(2), response["marked"])
	mockUseCase.AssertExpectations(t)
}

func TestSendNotification_InvalidBody(t *testing.T) {
	handler := &NotificationHandler{
		logger: logger.New(),
	}

	router := setupNotificationTestRouter()
	router.POST("/notifications/send", handler.SendNotification)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/notifications/send", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendNotification_Success(t *testing.T) {
	mockUseCase := new(MockNotificationUseCase)
	handler := &NotificationHandler{
		notificationUseCase: mockUseCase,
		logger:              logger.New(),
	}

	router := setupNotificationTestRouter()
	router.POST("/notifications/send", handler.SendNotification)

	mockUseCase.On("SendNotification", "user-123", "Hello", "World", "system", mock.Anything).
		Return(&entity.Notification{UserID: "user-123", Title: "Hello", Message: "World", Type: "system"}, nil)

	body, _ := json.Marshal(map[string]interface{}{
		"user_id": "user-123",
		"title":   "Hello",
		"message": "World",
		"type":    "system",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/notifications/send", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}
