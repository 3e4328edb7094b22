package handlers

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"casefile/internal/models"
)

// logAudit appends an audit row. Failures are logged and swallowed; the
// audit trail never vetoes the request that produced it.
func logAudit(db *gorm.DB, lg *zap.SugaredLogger, actorID, caseID, action, targetType, targetID string, meta map[string]any) {
	entry := models.AuditLog{
		ActorUserID: actorID,
		Action:      action,
		TargetType:  targetType,
		Metadata:    models.Marshal(meta),
	}
	if caseID != "" {
		entry.CaseID = &caseID
	}
	if targetID != "" {
		entry.TargetID = &targetID
	}
	if err := db.Create(&entry).Error; err != nil {
		lg.Warnw("audit write failed", "action", action, "error", err)
	}
}
