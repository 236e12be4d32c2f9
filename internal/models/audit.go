package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin             = "LOGIN"
	AuditActionLeadStatusChange  = "LEAD_STATUS_CHANGE"
	AuditActionLeadConvert       = "LEAD_CONVERT"
	AuditActionStudentStatus     = "STUDENT_STATUS_CHANGE"
	AuditActionStudentUpdate     = "STUDENT_UPDATE"
	AuditActionProfileLock       = "PROFILE_LOCK"
	AuditActionProfileUnlock     = "PROFILE_UNLOCK"
	AuditActionFieldsUnlock      = "FIELDS_UNLOCK"
	AuditActionScholarshipSet    = "SCHOLARSHIP_SET"
	AuditActionAppSubmitAdmin    = "APPLICATION_SUBMIT_ADMIN"
	AuditActionAppReject         = "APPLICATION_REJECT"
	AuditActionAppSubmitUni      = "APPLICATION_SUBMIT_UNI"
	AuditActionAppReturnSchool   = "APPLICATION_RETURN_SCHOOL"
	AuditActionAppOfferReceived  = "APPLICATION_OFFER_RECEIVED"
	AuditActionOfferRelease      = "OFFER_RELEASE"
	AuditActionInvoicePay        = "INVOICE_PAY"
	AuditActionInvoiceRefund     = "INVOICE_REFUND"
	AuditActionCommissionTrigger = "COMMISSION_TRIGGER"
	AuditActionCommissionPay     = "COMMISSION_PAY"
	AuditActionCommissionVoid    = "COMMISSION_VOID"
	AuditActionContractSign      = "CONTRACT_SIGN"
	AuditActionDocumentUpdate    = "DOCUMENT_UPDATE"
	AuditActionSettingsUpdate    = "SETTINGS_UPDATE"
)

// AuditLog represents an audit trail record. Every mutating engine
// operation emits exactly one.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	ActorID   *string   `db:"actor_id" json:"actor_id,omitempty"`
	Action    string    `db:"action" json:"action"`
	Entity    string    `db:"entity" json:"entity"`
	EntityID  *string   `db:"entity_id" json:"entity_id,omitempty"`
	Details   []byte    `db:"details" json:"details,omitempty"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
