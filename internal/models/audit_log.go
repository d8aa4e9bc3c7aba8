package models

import "time"

type AuditAction string

const (
	AuditActionCreate        AuditAction = "create"
	AuditActionUpdate        AuditAction = "update"
	AuditActionDelete        AuditAction = "delete"
	AuditActionStatusChange  AuditAction = "status_change"
	AuditActionAssignCourier AuditAction = "assign_courier"
	AuditActionPaymentIntent AuditAction = "payment_intent"
)

type AuditResource string

const (
	AuditResourceOrder    AuditResource = "order"
	AuditResourcePayment  AuditResource = "payment"
	AuditResourceDelivery AuditResource = "delivery"
	AuditResourceUser     AuditResource = "user"
)

// AuditLogEntry is written once and never modified.
type AuditLogEntry struct {
	ID           string         `bson:"_id" json:"id"`
	UserID       string         `bson:"userId" json:"userId"`
	UserName     string         `bson:"userName" json:"userName"`
	UserRole     Role           `bson:"userRole" json:"userRole"`
	Action       AuditAction    `bson:"action" json:"action"`
	Resource     AuditResource  `bson:"resource" json:"resource"`
	ResourceID   string         `bson:"resourceId,omitempty" json:"resourceId,omitempty"`
	Details      map[string]any `bson:"details" json:"details"`
	IPAddress    string         `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	UserAgent    string         `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	Timestamp    time.Time      `bson:"timestamp" json:"timestamp"`
	Success      bool           `bson:"success" json:"success"`
	ErrorMessage string         `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
}
