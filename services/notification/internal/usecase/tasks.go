package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"marketplace/pkg/models"
	"marketplace/pkg/queue"
)

var ErrInvalidTask = errors.New("invalid task")

// taskMeta fields are routing metadata and never copied into the notification data.
var taskMeta = map[string]bool{"type": true, "user_id": true, "priority": true}

var notificationTypes = map[string]models.NotificationType{
	queue.TaskSale:         models.NotificationTypeSale,
	queue.TaskBid:          models.NotificationTypeBid,
	queue.TaskOutbid:       models.NotificationTypeOutbid,
	queue.TaskAuctionEnded: models.NotificationTypeAuctionEnded,
	queue.TaskSubscription: models.NotificationTypeSubscription,
	queue.TaskMessage:      models.NotificationTypeMessage,
	queue.TaskBan:          models.NotificationTypeBan,
}

// HandleTask turns a queue task into a structured notification for task["user_id"].
func (uc *notificationUseCase) HandleTask(task map[string]interface{}) error {
	taskType, _ := task["type"].(string)
	userID, _ := task["user_id"].(string)
	if userID == "" {
		uc.logger.Error("[NOTIFICATION HANDLER] Invalid %s task: missing user_id, task=%+v", taskType, task)
		return fmt.Errorf("%w: missing user_id", ErrInvalidTask)
	}

	message, err := BuildTaskMessage(task)
	if err != nil {
		uc.logger.Error("[NOTIFICATION HANDLER] Invalid %s task: %v, task=%+v", taskType, err, task)
		return err
	}

	data := make(map[string]interface{}, len(task))
	for k, v := range task {
		if !taskMeta[k] {
			data[k] = v
		}
	}

	uc.logger.Info("[NOTIFICATION HANDLER] Processing %s notification for user_id=%s", taskType, userID)
	notificationType := string(notificationTypes[taskType])
	if _, err := uc.CreateNotification(context.Background(), userID, notificationType, message, data); err != nil {
		uc.logger.Error("[NOTIFICATION HANDLER] Failed to store %s notification for user %s: %v", taskType, userID, err)
		return err
	}
	return nil
}

// BuildTaskMessage renders the user-facing text for a marketplace task.
func BuildTaskMessage(task map[string]interface{}) (string, error) {
	taskType, _ := task["type"].(string)
	field := func(name string) string {
		v, _ := task[name].(string)
		return strings.TrimSpace(v)
	}
	require := func(names ...string) error {
		var missing []string
		for _, name := range names {
			if field(name) == "" {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %s task missing %s", ErrInvalidTask, taskType, strings.Join(missing, ", "))
		}
		return nil
	}
	amount := func() (string, error) {
		a, ok := formatAmount(task["amount"])
		if !ok {
			return "", fmt.Errorf("%w: %s task has no valid amount", ErrInvalidTask, taskType)
		}
		return a, nil
	}

	switch taskType {
	case queue.TaskSale:
		if err := require("buyer", "listing"); err != nil {
			return "", err
		}
		a, err := amount()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("New sale: %s bought %q for $%s", field("buyer"), field("listing"), a), nil

	case queue.TaskBid:
		if err := require("bidder", "listing"); err != nil {
			return "", err
		}
		a, err := amount()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("New bid of $%s placed on %q by %s", a, field("listing"), field("bidder")), nil

	case queue.TaskOutbid:
		if err := require("listing"); err != nil {
			return "", err
		}
		a, err := amount()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("You were outbid on %q: new high bid $%s", field("listing"), a), nil

	case queue.TaskAuctionEnded:
		if err := require("listing"); err != nil {
			return "", err
		}
		if field("winner") == "" {
			return fmt.Sprintf("Auction ended: %q received no bids", field("listing")), nil
		}
		a, err := amount()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Auction ended: %q sold to %s for $%s", field("listing"), field("winner"), a), nil

	case queue.TaskSubscription:
		if err := require("subscriber"); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s subscribed to you", field("subscriber")), nil

	case queue.TaskMessage:
		if err := require("sender"); err != nil {
			return "", err
		}
		return fmt.Sprintf("New message from %s", field("sender")), nil

	case queue.TaskBan:
		reason := field("reason")
		if reason == "" {
			reason = "violation of marketplace rules"
		}
		return fmt.Sprintf("Your account has been suspended: %s", reason), nil
	}

	return "", fmt.Errorf("%w: unknown task type %q", ErrInvalidTask, taskType)
}

// formatAmount accepts JSON numbers and numeric strings. Whole amounts print without decimals.
func formatAmount(v interface{}) (string, bool) {
	var f float64
	switch a := v.(type) {
	case float64:
		f = a
	case int:
		f = float64(a)
	case int64:
		f = float64(a)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
		if err != nil {
			return "", false
		}
		f = parsed
	default:
		return "", false
	}
	if f < 0 {
		return "", false
	}
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10), true
	}
	return strconv.FormatFloat(f, 'f', 2, 64), true
}
