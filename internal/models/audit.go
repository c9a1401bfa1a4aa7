package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionLogout         = "LOGOUT"
	AuditActionUserCreate     = "USER_CREATE"
	AuditActionUserUpdate     = "USER_UPDATE"
	AuditActionUserDelete     = "USER_DELETE"
	AuditActionPasswordChange = "PASSWORD_CHANGE"

	AuditActionMasterDataCreate = "MASTER_DATA_CREATE"
	AuditActionMasterDataUpdate = "MASTER_DATA_UPDATE"
	AuditActionMasterDataDelete = "MASTER_DATA_DELETE"

	AuditActionTransactionCreate  = "TRANSACTION_CREATE"
	AuditActionTransactionUpdate  = "TRANSACTION_UPDATE"
	AuditActionTransactionDelete  = "TRANSACTION_DELETE"
	AuditActionApprovalTransition = "APPROVAL_TRANSITION"
	AuditActionApprovalOverride   = "APPROVAL_OVERRIDE"

	AuditActionExportCreate   = "EXPORT_CREATE"
	AuditActionExportDownload = "EXPORT_DOWNLOAD"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         int64     `db:"id" json:"id"`
	UserID     *int64    `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
