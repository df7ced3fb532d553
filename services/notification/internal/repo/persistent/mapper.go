package persistent

import (
	"time"

	"marketplace/pkg/models"
	"marketplace/services/notification/internal/entity"
)

func ToStructuredEntity(m *models.Notification) entity.StructuredNotification {
	if m == nil {
		return entity.StructuredNotification{}
	}
	return entity.StructuredNotification{
		ID:        m.ID,
		Type:      string(m.Type),
		Message:   m.Message,
		Data:      m.Data,
		CreatedAt: entity.Timestamp(m.CreatedAt.UTC().Format(time.RFC3339Nano)),
	}
}

func ToStructuredEntities(rows []models.Notification) []entity.StructuredNotification {
	out := make([]entity.StructuredNotification, len(rows))
	for i := range rows {
		out[i] = ToStructuredEntity(&rows[i])
	}
	return out
}
