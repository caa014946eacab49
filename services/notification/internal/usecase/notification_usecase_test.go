package usecase

import (
	"testing"

	"thankatech/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestHandleThankYouNotification_InvalidTask(t *testing.T) {
	uc := NewNotificationUseCase(nil, nil, logger.New())

	err := uc.HandleThankYouNotification(map[string]interface{}{
		"event": "thank_you_received",
	})
	assert.Error(t, err)

	err = uc.HandleThankYouNotification(map[string]interface{}{
		"event":        "thank_you_received",
		"from_user_id": "user-1",
	})
	assert.Error(t, err)
}

func TestHandleTokenNotification_InvalidTask(t *testing.T) {
	uc := NewNotificationUseCase(nil, nil, logger.New())

	err := uc.HandleTokenNotification(map[string]interface{}{
		"event":      "toa_received",
		"to_user_id": "tech-1",
	})
	assert.Error(t, err)
}

func TestGetQueueStatus_NoQueue(t *testing.T) {
	uc := NewNotificationUseCase(nil, nil, logger.New())

	_, err := uc.GetQueueStatus()
	assert.Error(t, err)
}

func TestGetNotifications_RequiresRedis(t *testing.T) {
	t.Skip("Skipping test that requires Redis - covered by integration tests")
}
