package persistent

import (
	"marketplace/pkg/models"
	"marketplace/services/moderation/internal/entity"
)

func ToBanEntity(b *models.Ban) *entity.Ban {
	return &entity.Ban{
		ID:        b.ID,
		UserID:    b.UserID,
		Reason:    b.Reason,
		CreatedBy: b.CreatedBy,
		CreatedAt: b.CreatedAt,
		ExpiresAt: b.ExpiresAt,
		LiftedAt:  b.LiftedAt,
	}
}

func ToBanEntities(bans []models.Ban) []entity.Ban {
	out := make([]entity.Ban, 0, len(bans))
	for i := range bans {
		out = append(out, *ToBanEntity(&bans[i]))
	}
	return out
}
