package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"thankatech/pkg/logger"
	"thankatech/pkg/queue"
	"thankatech/services/notification/internal/entity"

	"github.com/redis/go-redis/v9"
)

type NotificationUseCase interface {
	SendNotification(userID, title, message, notificationType string, data map[string]interface{}) (*entity.Notification, error)
	GetNotifications(userID string, limit, offset int) ([]entity.Notification, int64, error)
	MarkAllRead(userID string) (int64, error)
	ClearNotifications(userID string) (int64, error)
	GetQueueStatus() (int64, error)
	HandleThankYouNotification(task map[string]interface{}) error
	HandleTokenNotification(task map[string]interface{}) error
}

type notificationUseCase struct {
	redisClient *redis.Client
	queueClient *queue.Client
	logger      *logger.Logger
}

func NewNotificationUseCase(redisClient *redis.Client, queueClient *queue.Client, logger *logger.Logger) NotificationUseCase {
	return &notificationUseCase{
		redisClient: redisClient,
		queueClient: queueClient,
		logger:      logger,
	}
}

func (uc *notificationUseCase) SendNotification(userID, title, message, notificationType string, data map[string]interface{}) (*entity.Notification, error) {
	notification := &entity.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notificationType,
		Data:      data,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if err := uc.storeAndPublish(notification); err != nil {
		return nil, err
	}

	uc.logger.Info("Notification sent to user %s: %s", userID, title)
	return notification, nil
}

func (uc *notificationUseCase) GetNotifications(userID string, limit, offset int) ([]entity.Notification, int64, error) {
	ctx := context.Background()
	userNotificationsKey := fmt.Sprintf("notifications:%s", userID)

	allNotifications, err := uc.redisClient.LRange(ctx, userNotificationsKey, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get notifications: %w", err)
	}

	var notifications []entity.Notification
	for _, notifJSON := range allNotifications {
		var notification entity.Notification
		if err := json.Unmarshal([]byte(notifJSON), &notification); err == nil {
			notifications = append(notifications, notification)
		}
	}

	totalCount, _ := uc.redisClient.LLen(ctx, userNotificationsKey).Result()

	return notifications, totalCount, nil
}

func (uc *notificationUseCase) MarkAllRead(userID string) (int64, error) {
	ctx := context.Background()
	userNotificationsKey := fmt.Sprintf("notifications:%s", userID)

	allNotifications, err := uc.redisClient.LRange(ctx, userNotificationsKey, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get notifications: %w", err)
	}

	var marked int64
	rewritten := make([]interface{}, 0, len(allNotifications))
	for _, notifJSON := range allNotifications {
		var notification entity.Notification
		if err := json.Unmarshal([]byte(notifJSON), &notification); err != nil {
			rewritten = append(rewritten, notifJSON)
			continue
		}
		if !notification.Read {
			notification.Read = true
			marked++
		}
		updatedJSON, err := json.Marshal(&notification)
		if err != nil {
			rewritten = append(rewritten, notifJSON)
			continue
		}
		rewritten = append(rewritten, string(updatedJSON))
	}

	if marked > 0 {
		pipe := uc.redisClient.TxPipeline()
		pipe.Del(ctx, userNotificationsKey)
		pipe.RPush(ctx, userNotificationsKey, rewritten...)
		pipe.Expire(ctx, userNotificationsKey, 30*24*time.Hour)
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, fmt.Errorf("failed to mark notifications read: %w", err)
		}
	}

	return marked, nil
}

func (uc *notificationUseCase) ClearNotifications(userID string) (int64, error) {
	ctx := context.Background()
	userNotificationsKey := fmt.Sprintf("notifications:%s", userID)

	count, _ := uc.redisClient.LLen(ctx, userNotificationsKey).Result()
	if err := uc.redisClient.Del(ctx, userNotificationsKey).Err(); err != nil {
		return 0, fmt.Errorf("failed to clear notifications: %w", err)
	}

	return count, nil
}

func (uc *notificationUseCase) GetQueueStatus() (int64, error) {
	if uc.queueClient == nil {
		return 0, fmt.Errorf("queue client is not available")
	}
	length, err := uc.queueClient.GetQueueLength()
	return int64(length), err
}

func (uc *notificationUseCase) HandleThankYouNotification(task map[string]interface{}) error {
	fromUserID, _ := task["from_user_id"].(string)
	toUserID, _ := task["to_user_id"].(string)
	message, _ := task["message"].(string)

	if fromUserID == "" || toUserID == "" {
		uc.logger.Error("Invalid thank_you task: missing from_user_id or to_user_id, task=%+v", task)
		return fmt.Errorf("invalid task: missing from_user_id or to_user_id")
	}

	body := "Someone sent you a thank-you!"
	if message != "" {
		body = fmt.Sprintf("Someone sent you a thank-you: %s", message)
	}

	notification := &entity.Notification{
		UserID:    toUserID,
		Title:     "You've been thanked!",
		Message:   body,
		Type:      "thank_you",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Data: map[string]interface{}{
			"from_user_id": fromUserID,
		},
	}

	if err := uc.storeAndPublish(notification); err != nil {
		uc.logger.Error("Failed to send thank-you notification to user %s: %v", toUserID, err)
		return err
	}

	uc.logger.Info("Sent thank-you notification to user %s", toUserID)
	return nil
}

func (uc *notificationUseCase) HandleTokenNotification(task map[string]interface{}) error {
	fromUserID, _ := task["from_user_id"].(string)
	toUserID, _ := task["to_user_id"].(string)

	if fromUserID == "" || toUserID == "" {
		uc.logger.Error("Invalid toa_received task: missing from_user_id or to_user_id, task=%+v", task)
		return fmt.Errorf("invalid task: missing from_user_id or to_user_id")
	}

	// tokens arrives as float64 after JSON round-trip
	tokens := 0
	if t, ok := task["tokens"].(float64); ok {
		tokens = int(t)
	}

	payout, _ := task["technician_payout"].(string)

	body := fmt.Sprintf("You received %d TOA tokens!", tokens)
	if payout != "" && payout != "0" {
		body = fmt.Sprintf("You received %d TOA tokens worth $%s!", tokens, payout)
	}

	notification := &entity.Notification{
		UserID:    toUserID,
		Title:     "Tokens of Appreciation received!",
		Message:   body,
		Type:      "toa_received",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Data: map[string]interface{}{
			"from_user_id": fromUserID,
			"tokens":       tokens,
		},
	}

	if err := uc.storeAndPublish(notification); err != nil {
		uc.logger.Error("Failed to send token notification to user %s: %v", toUserID, err)
		return err
	}

	uc.logger.Info("Sent token notification to user %s", toUserID)
	return nil
}

func (uc *notificationUseCase) storeAndPublish(notification *entity.Notification) error {
	notificationJSON, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	ctx := context.Background()
	userNotificationsKey := fmt.Sprintf("notifications:%s", notification.UserID)
	if err := uc.redisClient.LPush(ctx, userNotificationsKey, notificationJSON).Err(); err != nil {
		return fmt.Errorf("failed to LPush notification to Redis: %w", err)
	}
	uc.redisClient.LTrim(ctx, userNotificationsKey, 0, 99)
	uc.redisClient.Expire(ctx, userNotificationsKey, 30*24*time.Hour)

	pubsubChannel := fmt.Sprintf("notifications:%s", notification.UserID)
	if err := uc.redisClient.Publish(ctx, pubsubChannel, notificationJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish notification to channel %s: %w", pubsubChannel, err)
	}

	return nil
}
