package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/edupath/placement-api/internal/middleware"
	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/internal/repository"
	"github.com/edupath/placement-api/internal/service"
)

// Registry bundles every HTTP handler for route registration.
type Registry struct {
	Auth          *AuthHandler
	Lead          *LeadHandler
	Student       *StudentHandler
	Application   *ApplicationHandler
	Billing       *BillingHandler
	Commission    *CommissionHandler
	Document      *DocumentHandler
	Contract      *ContractHandler
	Settings      *SettingsHandler
	Notification  *NotificationHandler
	Staff         *StaffHandler
	Appointment   *AppointmentHandler
	Export        *ExportHandler
	Audit         *AuditHandler
	Metrics       *MetricsHandler
	ExportEnabled bool
}

// RegisterRoutes mounts the API surface under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, authSvc *service.AuthService, auditRepo *repository.AuditRepository, reg Registry) {
	r.GET("/health", reg.Metrics.Health)
	r.GET("/ready", reg.Metrics.Health)
	r.GET("/metrics", reg.Metrics.Prometheus)

	api := r.Group(prefix)

	api.POST("/auth/login", reg.Auth.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.GET("/auth/me", reg.Auth.Me)

	counselors := middleware.RequireRoles(models.RoleCounselor, models.RoleAdmin)
	accountants := middleware.RequireRoles(models.RoleAccountant, models.RoleAdmin)
	admins := middleware.RequireRoles(models.RoleAdmin)

	leads := authed.Group("/leads", counselors)
	{
		leads.GET("", reg.Lead.List)
		leads.GET("/idle", reg.Lead.Idle)
		leads.POST("", reg.Lead.Create)
		leads.GET("/:id", reg.Lead.Get)
		leads.PATCH("/:id/status", reg.Lead.ChangeStatus)
		leads.POST("/:id/contact", reg.Lead.RecordContact)
		leads.POST("/:id/convert", reg.Lead.Convert)
	}

	students := authed.Group("/students")
	{
		students.GET("", reg.Student.List)
		students.GET("/:id", reg.Student.Get)
		students.GET("/:id/final-balance", reg.Student.FinalBalance)
		students.PATCH("/:id", counselors, reg.Student.Update)
		students.PATCH("/:id/status", counselors, reg.Student.ChangeStatus)
		students.PUT("/:id/scholarship", counselors, reg.Student.SetScholarship)
		students.POST("/:id/lock", admins, reg.Student.Lock)
		students.POST("/:id/unlock", admins, reg.Student.Unlock)
		students.POST("/:id/unlock-fields", admins, reg.Student.UnlockFields)
		students.POST("/:id/release-offer", admins, reg.Student.ReleaseOffer)

		students.GET("/:id/applications", reg.Application.ListByStudent)
		students.GET("/:id/documents", reg.Document.ListByStudent)
		students.GET("/:id/invoices", reg.Billing.ListInvoices)
		students.GET("/:id/ledger", reg.Billing.LedgerEntries)
		students.GET("/:id/ledger/balance", reg.Billing.LedgerBalance)
	}

	applications := authed.Group("/applications")
	{
		applications.POST("", counselors, reg.Application.Create)
		applications.GET("/idle", admins, reg.Application.Idle)
		applications.GET("/:id", reg.Application.Get)
		applications.POST("/:id/submit-admin", counselors, reg.Application.SubmitToAdmin)
		applications.POST("/:id/reject", admins, reg.Application.Reject)
		applications.POST("/:id/submit-university", admins, reg.Application.SubmitToUniversity)
		applications.POST("/:id/return-school", admins, reg.Application.ReturnFromSchool)
		applications.POST("/:id/offer-received", admins, reg.Application.OfferReceived)
	}

	invoices := authed.Group("/invoices")
	{
		invoices.POST("", accountants, reg.Billing.CreateInvoice)
		invoices.GET("/:id", reg.Billing.GetInvoice)
		invoices.POST("/:id/pay", accountants, reg.Billing.PayInvoice)
		invoices.POST("/:id/refund", accountants, reg.Billing.RefundInvoice)
	}

	commissions := authed.Group("/commissions")
	{
		commissions.GET("/:id", accountants, reg.Commission.Get)
		commissions.POST("/:id/pay", accountants, reg.Commission.Pay)
		commissions.POST("/:id/void", accountants, reg.Commission.Void)
	}

	documents := authed.Group("/documents", counselors)
	{
		documents.POST("", reg.Document.Create)
		documents.PATCH("/:id", reg.Document.Update)
		documents.POST("/:id/verify", reg.Document.Verify)
		documents.POST("/:id/error", reg.Document.MarkError)
	}

	contracts := authed.Group("/contracts")
	{
		contracts.POST("", counselors, reg.Contract.Create)
		contracts.GET("/:id", reg.Contract.Get)
		contracts.POST("/:id/sign", counselors, reg.Contract.Sign)
		contracts.POST("/expire-overdue", admins, reg.Contract.ExpireOverdue)
	}

	settings := authed.Group("/settings")
	{
		settings.GET("", reg.Settings.Get)
		settings.PUT("", admins, reg.Settings.Update)
	}

	notifications := authed.Group("/notifications")
	{
		notifications.GET("", reg.Notification.List)
		notifications.POST("/:id/read", reg.Notification.MarkRead)
	}

	staff := authed.Group("/staff")
	{
		staff.GET("", reg.Staff.List)
		staff.POST("", admins, reg.Staff.Create)
		staff.GET("/:id", middleware.RBAC("ADMIN", "SELF"), reg.Staff.Get)
		staff.GET("/:id/commissions", middleware.RBAC("ADMIN", "ACCOUNTANT", "SELF"), reg.Commission.ListByStaff)
		staff.GET("/:id/appointments", middleware.RBAC("ADMIN", "COUNSELOR", "SELF"), reg.Appointment.ListByStaff)
	}

	appointments := authed.Group("/appointments")
	{
		appointments.POST("", reg.Appointment.Create)
		appointments.PATCH("/:id/status", reg.Appointment.UpdateStatus)
	}

	authed.GET("/audit/:entity/:id", admins, reg.Audit.ListByEntity)

	if reg.ExportEnabled {
		exportAudit := middleware.Audit(auditRepo, "EXPORT_DOWNLOAD", "export")
		students.GET("/:id/ledger/export", accountants, exportAudit, reg.Export.LedgerStatement)
		staff.GET("/:id/commissions/export", accountants, exportAudit, reg.Export.CommissionReport)
	}
}
