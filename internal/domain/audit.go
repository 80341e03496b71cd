package domain

import (
	"encoding/json"
	"time"
)

type AuditAction string

const (
	AuditApartmentCreated  AuditAction = "apartment_created"
	AuditApartmentUpdated  AuditAction = "apartment_updated"
	AuditApartmentDeleted  AuditAction = "apartment_deleted"
	AuditBookingCreated    AuditAction = "booking_created"
	AuditBookingUpdated    AuditAction = "booking_updated"
	AuditBookingDeleted    AuditAction = "booking_deleted"
	AuditBookingAssigned   AuditAction = "booking_assigned"
	AuditBookingUnassigned AuditAction = "booking_unassigned"
	AuditBackupImported    AuditAction = "backup_imported"
)

// AuditRecord is one persisted entry of the audit trail. Details holds the
// action-specific payload as it was published on the audit topic.
type AuditRecord struct {
	ID         int64
	Action     AuditAction
	EntityType string
	EntityID   string
	Actor      string
	Details    json.RawMessage
	OccurredAt time.Time
}
