package models

import "time"

// Audit actions recorded by this service. Denied CLI authorizations are
// deliberately not audited; a denial leaves no trace anywhere.
const (
	AuditActionUserCreate   = "USER_CREATE"
	AuditActionCLIAuthorize = "CLI_AUTHORIZE"
	AuditActionPlanGrant    = "PLAN_GRANT"
)

// AuditLog is one entry in the `auditLogs` collection.
type AuditLog struct {
	ID        string                 `json:"id" firestore:"-"`
	Timestamp time.Time              `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	UserID    string                 `json:"userId" firestore:"userId"`
	Action    string                 `json:"action" firestore:"action"`
	IPAddress string                 `json:"ipAddress,omitempty" firestore:"ipAddress,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"`
}
