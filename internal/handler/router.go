package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/authz"
	"github.com/noah-isme/school-admin-api/internal/middleware"
)

// Handlers bundles every HTTP handler mounted by RegisterRoutes.
type Handlers struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Students    *StudentHandler
	Teachers    *TeacherHandler
	Parents     *ParentHandler
	Classes     *ClassHandler
	Courses     *CourseHandler
	Evaluations *EvaluationHandler
	Grades      *GradeHandler
	Periods     *PeriodHandler
	ReportCards *ReportCardHandler
	Billing     *BillingHandler
	Timetable   *TimetableHandler
	Cron        *CronHandler
	Metrics     *MetricsHandler
}

// RouteOptions carries the settings that shape the route table.
type RouteOptions struct {
	Prefix     string
	CronSecret string
	Tokens     middleware.TokenValidator
}

// RegisterRoutes mounts the API under opts.Prefix. /health and /metrics stay at the root.
func RegisterRoutes(r gin.IRouter, h Handlers, opts RouteOptions) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(opts.Prefix)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/register", middleware.OptionalJWT(opts.Tokens), h.Auth.Register)
	api.GET("/cron/updatePaymentStatus", middleware.CronSecret(opts.CronSecret), h.Cron.UpdatePaymentStatus)

	secured := api.Group("")
	secured.Use(middleware.JWT(opts.Tokens))
	secured.GET("/auth/me", h.Auth.Me)
	secured.GET("/admin/metrics", middleware.Require(authz.UsersManage), h.Metrics.Summary)

	users := secured.Group("/users", middleware.Require(authz.UsersManage))
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.PUT("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete)

	crud(secured.Group("/students"), authz.DirectoryRead, authz.DirectoryWrite,
		h.Students.List, h.Students.Get, h.Students.Create, h.Students.Update, h.Students.Delete)
	crud(secured.Group("/teachers"), authz.DirectoryRead, authz.DirectoryWrite,
		h.Teachers.List, h.Teachers.Get, h.Teachers.Create, h.Teachers.Update, h.Teachers.Delete)
	crud(secured.Group("/parents"), authz.DirectoryRead, authz.DirectoryWrite,
		h.Parents.List, h.Parents.Get, h.Parents.Create, h.Parents.Update, h.Parents.Delete)
	crud(secured.Group("/classes"), authz.DirectoryRead, authz.DirectoryWrite,
		h.Classes.List, h.Classes.Get, h.Classes.Create, h.Classes.Update, h.Classes.Delete)
	for _, path := range []string{"/courses", "/subjects"} {
		crud(secured.Group(path), authz.CoursesRead, authz.CoursesWrite,
			h.Courses.List, h.Courses.Get, h.Courses.Create, h.Courses.Update, h.Courses.Delete)
	}
	crud(secured.Group("/evaluations"), authz.EvaluationsRead, authz.EvaluationsWrite,
		h.Evaluations.List, h.Evaluations.Get, h.Evaluations.Create, h.Evaluations.Update, h.Evaluations.Delete)
	crud(secured.Group("/periods"), authz.PeriodsRead, authz.PeriodsWrite,
		h.Periods.List, h.Periods.Get, h.Periods.Create, h.Periods.Update, h.Periods.Delete)

	grades := secured.Group("/grades")
	grades.GET("/average", middleware.Require(authz.GradesRead), h.Grades.Average)
	crud(grades, authz.GradesRead, authz.GradesWrite,
		h.Grades.List, h.Grades.Get, h.Grades.Create, h.Grades.Update, h.Grades.Delete)

	read, write := middleware.Require(authz.ReportCardsRead), middleware.Require(authz.ReportCardsWrite)
	cards := secured.Group("/report-cards")
	cards.GET("", read, h.ReportCards.List)
	cards.POST("", write, h.ReportCards.Create)
	cards.POST("/batch", write, h.ReportCards.BatchCreate)
	cards.PUT("/batch/status", write, h.ReportCards.BatchStatus)
	cards.POST("/batch/delete", write, h.ReportCards.BatchDelete)
	cards.GET("/student/:studentId", read, h.ReportCards.ByStudent)
	cards.GET("/class/:classId", read, h.ReportCards.ClassSummary)
	cards.GET("/class/:classId/export", read, h.ReportCards.ExportClass)
	cards.GET("/:id", read, h.ReportCards.Get)
	cards.GET("/:id/pdf", read, h.ReportCards.PDF)
	cards.PUT("/:id", write, h.ReportCards.Update)
	cards.DELETE("/:id", write, h.ReportCards.Delete)

	billingRead, billingWrite := middleware.Require(authz.BillingRead), middleware.Require(authz.BillingWrite)
	secured.GET("/fee-types", billingRead, h.Billing.ListFeeTypes)
	secured.POST("/fee-types", billingWrite, h.Billing.CreateFeeType)
	secured.GET("/fee-assignments", billingRead, h.Billing.ListAssignments)
	secured.POST("/fee-assignments", billingWrite, h.Billing.CreateAssignment)
	secured.GET("/invoices", billingRead, h.Billing.ListInvoices)
	secured.POST("/invoices", billingWrite, h.Billing.CreateInvoice)
	secured.GET("/invoices/:id", billingRead, h.Billing.GetInvoice)
	secured.POST("/invoices/:id/payments", billingWrite, h.Billing.RecordPayment)
	secured.GET("/payment-config", billingRead, h.Billing.PaymentConfig)
	secured.PUT("/payment-config", middleware.Require(authz.PaymentConfigWrite), h.Billing.UpdatePaymentConfig)

	ttRead, ttWrite := middleware.Require(authz.TimetableRead), middleware.Require(authz.TimetableWrite)
	timetable := secured.Group("/timetable")
	timetable.GET("/timeslots", ttRead, h.Timetable.ListSlots)
	timetable.POST("/timeslots", ttWrite, h.Timetable.CreateSlot)
	timetable.DELETE("/timeslots/:id", ttWrite, h.Timetable.DeleteSlot)
	timetable.POST("/generate-timeslots", middleware.Require(authz.TimetableGenerate), h.Timetable.GenerateSlots)
	timetable.GET("/schedule", ttRead, h.Timetable.ListSchedules)
	timetable.POST("/schedule", ttWrite, h.Timetable.CreateSchedule)
	timetable.DELETE("/schedule/:id", ttWrite, h.Timetable.DeleteSchedule)
	timetable.GET("/schoolday-config", ttRead, h.Timetable.ListDayConfigs)
	timetable.POST("/schoolday-config", ttWrite, h.Timetable.UpsertDayConfig)
	timetable.DELETE("/schoolday-config/:id", ttWrite, h.Timetable.DeleteDayConfig)
}

// crud mounts the five conventional resource routes on g.
func crud(g *gin.RouterGroup, read, write authz.Action, list, get, create, update, remove gin.HandlerFunc) {
	r, w := middleware.Require(read), middleware.Require(write)
	g.GET("", r, list)
	g.POST("", w, create)
	g.GET("/:id", r, get)
	g.PUT("/:id", w, update)
	g.DELETE("/:id", w, remove)
}
