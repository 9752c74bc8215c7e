// Package swagger holds the OpenAPI 2.0 document served under /docs in non-production builds.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login, registration and profile"},
        {"name": "Grades", "description": "Grades and weighted averages"},
        {"name": "ReportCards", "description": "Report card lifecycle, rankings and bulletins"},
        {"name": "Billing", "description": "Fees, invoices, payments and late payment policy"},
        {"name": "Timetable", "description": "Time slots, school days and class schedules"},
        {"name": "Cron", "description": "Maintenance jobs guarded by a shared secret"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Access token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a user account",
                "description": "Creating an ADMIN account requires an ADMIN bearer token. A duplicate email answers 400.",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload or email already used", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades/average": {
            "get": {
                "tags": ["Grades"],
                "summary": "Weighted average of a student over a period",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "student_id", "type": "string", "required": true},
                    {"in": "query", "name": "period_id", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Average", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown period", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report-cards": {
            "post": {
                "tags": ["ReportCards"],
                "summary": "Create a draft report card",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateReportCardRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "A card already exists for this student and period", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown student or period", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report-cards/batch": {
            "post": {
                "tags": ["ReportCards"],
                "summary": "Create report cards for many students in one transaction",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/BatchCreateReportCardsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report-cards/class/{classId}": {
            "get": {
                "tags": ["ReportCards"],
                "summary": "Ranked class summary for a period",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "classId", "type": "string", "required": true},
                    {"in": "query", "name": "periodId", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Summary; meta.cache_hit tells whether Redis served it", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report-cards/{id}/pdf": {
            "get": {
                "tags": ["ReportCards"],
                "summary": "Download a report card bulletin",
                "produces": ["application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF document", "schema": {"type": "file"}}
                }
            }
        },
        "/invoices/{id}/payments": {
            "post": {
                "tags": ["Billing"],
                "summary": "Record a payment against an invoice",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/PaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated invoice", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/generate-timeslots": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate time slots from the school day configuration",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created slots", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/schedule": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Book a class, course and teacher into a time slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Class or teacher already booked in this slot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown class, course, teacher or slot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cron/updatePaymentStatus": {
            "get": {
                "tags": ["Cron"],
                "summary": "Propagate overdue invoices and apply late fees",
                "parameters": [
                    {"in": "query", "name": "secret", "type": "string", "required": false},
                    {"in": "header", "name": "X-Cron-Secret", "type": "string", "required": false}
                ],
                "responses": {
                    "200": {"description": "Counts per step", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or wrong secret", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A run is already in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Rolled back", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "first_name", "last_name", "role"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "role": {"type": "string", "enum": ["ADMIN", "TEACHER", "STUDENT", "PARENT"]}
            }
        },
        "CreateReportCardRequest": {
            "type": "object",
            "required": ["student_id", "period_id"],
            "properties": {
                "student_id": {"type": "string"},
                "period_id": {"type": "string"},
                "appreciation": {"type": "string"}
            }
        },
        "BatchCreateReportCardsRequest": {
            "type": "object",
            "required": ["period_id", "student_ids"],
            "properties": {
                "period_id": {"type": "string"},
                "student_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "PaymentRequest": {
            "type": "object",
            "required": ["amount"],
            "properties": {
                "amount": {"type": "number"}
            }
        },
        "ScheduleRequest": {
            "type": "object",
            "required": ["class_id", "course_id", "teacher_id", "time_slot_id"],
            "properties": {
                "class_id": {"type": "string"},
                "course_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "time_slot_id": {"type": "string"},
                "room": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "message": {"type": "string"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "School Admin API",
	Description:      "School management backend: directory, grades, report cards, billing and timetables.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
