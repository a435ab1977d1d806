package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CBDMS Web",
        "description": "Web front end of the College based Data Management System: weekly time schedule editor and teacher paper list.",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Schedule", "description": "Weekly time schedule editor (5 weekdays x 5 periods)"},
        {"name": "Papers", "description": "Papers a teacher may place into schedule slots"},
        {"name": "Ops", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Ops"],
                "summary": "Health check",
                "security": [],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["Ops"],
                "summary": "Readiness check",
                "security": [],
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Ops"],
                "summary": "Prometheus metrics",
                "security": [],
                "produces": ["text/plain"],
                "responses": {"200": {"description": "Metrics in exposition format"}}
            }
        },
        "/api/v1/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Current state of the schedule editor",
                "description": "Loads the stored schedule on first use. A user without a stored schedule gets an editable empty grid.",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Editor view", "schema": {"$ref": "#/definitions/EditorViewEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Backend failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/edit": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Switch a stored schedule into edit mode",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Editor view", "schema": {"$ref": "#/definitions/EditorViewEnvelope"}},
                    "303": {"description": "Redirect to /schedule for form posts"},
                    "409": {"description": "Not in view mode", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/slot": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Place a paper into one slot",
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "day", "in": "formData", "type": "string", "required": true, "enum": ["monday", "tuesday", "wednesday", "thursday", "friday"]},
                    {"name": "index", "in": "formData", "type": "integer", "required": true, "minimum": 0, "maximum": 4},
                    {"name": "value", "in": "formData", "type": "string", "required": true, "description": "Paper name or --"}
                ],
                "responses": {
                    "200": {"description": "Editor view", "schema": {"$ref": "#/definitions/EditorViewEnvelope"}},
                    "303": {"description": "Redirect to /schedule for form posts"},
                    "400": {"description": "Invalid coordinate or unknown paper", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Grid is locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/save": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Create or update the stored schedule",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Editor view", "schema": {"$ref": "#/definitions/EditorViewEnvelope"}},
                    "303": {"description": "Redirect to /schedule for form posts"},
                    "409": {"description": "Not in edit mode", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Backend failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/delete": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Delete the stored schedule",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Editor view", "schema": {"$ref": "#/definitions/EditorViewEnvelope"}},
                    "303": {"description": "Redirect to /schedule for form posts"},
                    "409": {"description": "Nothing stored to delete", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Backend failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/reload": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Fetch the stored schedule again",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Editor view", "schema": {"$ref": "#/definitions/EditorViewEnvelope"}},
                    "303": {"description": "Redirect to /schedule for form posts"},
                    "502": {"description": "Backend failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/export": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Download the schedule grid",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "Rendered file"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Schedule not loaded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/papers": {
            "get": {
                "tags": ["Papers"],
                "summary": "List the papers of the signed-in teacher",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Paper list", "schema": {"$ref": "#/definitions/PaperListEnvelope"}},
                    "502": {"description": "Backend failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Paper": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "name": {"type": "string"},
                "paper": {"type": "string"}
            }
        },
        "Schedule": {
            "type": "object",
            "properties": {
                "monday": {"$ref": "#/definitions/Periods"},
                "tuesday": {"$ref": "#/definitions/Periods"},
                "wednesday": {"$ref": "#/definitions/Periods"},
                "thursday": {"$ref": "#/definitions/Periods"},
                "friday": {"$ref": "#/definitions/Periods"}
            }
        },
        "Periods": {
            "type": "array",
            "minItems": 5,
            "maxItems": 5,
            "items": {"type": "string"}
        },
        "EditorView": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "enum": ["idle", "loading", "viewing", "editing", "failed"]},
                "user_id": {"type": "string"},
                "schedule_id": {"type": "string"},
                "schedule": {"$ref": "#/definitions/Schedule"},
                "options": {"type": "array", "items": {"$ref": "#/definitions/Paper"}},
                "error": {"type": "string"},
                "locked": {"type": "boolean"},
                "can_edit": {"type": "boolean"},
                "can_save": {"type": "boolean"},
                "can_delete": {"type": "boolean"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        },
        "EditorViewEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/EditorView"},
                "error": {"$ref": "#/definitions/APIError"}
            }
        },
        "PaperListEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/Paper"}},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
