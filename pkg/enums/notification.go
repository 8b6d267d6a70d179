package enums

import "fmt"

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationTypeOrderPlaced   NotificationType = "order_placed"
	NotificationTypeNewOrder      NotificationType = "new_order"
	NotificationTypeOrderUpdate   NotificationType = "order_update"
	NotificationTypeOrderRefunded NotificationType = "order_refunded"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderPlaced,
	NotificationTypeNewOrder,
	NotificationTypeOrderUpdate,
	NotificationTypeOrderRefunded,
}

// IsValid checks whether the given type matches a known value.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
