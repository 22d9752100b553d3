package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Records API",
        "description": "Academic records aggregation and PDF document composition",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Documents", "description": "Issued documents, previews and the archive"},
        {"name": "Grades", "description": "Assessment score entry"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/api/v1/documents/{id}/pdf": {
            "get": {
                "tags": ["Documents"],
                "summary": "Render an issued document",
                "description": "Streams the PDF. A draft document becomes issued once it has been streamed successfully.",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF document", "schema": {"type": "file"}, "headers": {"X-Document-Archive-URL": {"type": "string"}}},
                    "400": {"description": "Unknown type, missing target or invalid config", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Document or a referenced record not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/documents/preview": {
            "post": {
                "tags": ["Documents"],
                "summary": "Preview a document without persisting it",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PreviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "PDF document", "schema": {"type": "file"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Record not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/documents/variables": {
            "post": {
                "tags": ["Documents"],
                "summary": "Substitute {{namespace.field}} variables in free text",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveVariablesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student or enrollment not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/documents/archive/{token}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download an archived document via signed token",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF document", "schema": {"type": "file"}},
                    "403": {"description": "Invalid, expired or foreign token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Archive disabled or file missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/grades": {
            "put": {
                "tags": ["Grades"],
                "summary": "Record an assessment score",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordScoreRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Score out of range or validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Assessment or enrollment not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "First score written concurrently, retry", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "PreviewRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["report_card", "enrollment_proof", "transcript", "attendance_declaration", "student_file", "free_form"]},
                "templateId": {"type": "string"},
                "studentId": {"type": "string"},
                "enrollmentId": {"type": "string"},
                "title": {"type": "string"},
                "header": {"type": "string"},
                "body": {"type": "string"},
                "footer": {"type": "string"},
                "observations": {"type": "string"},
                "config": {"type": "object"}
            },
            "required": ["type"]
        },
        "ResolveVariablesRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "studentId": {"type": "string"},
                "enrollmentId": {"type": "string"}
            },
            "required": ["text"]
        },
        "RecordScoreRequest": {
            "type": "object",
            "properties": {
                "assessmentId": {"type": "string"},
                "enrollmentId": {"type": "string"},
                "score": {"type": "string", "example": "7.5"}
            },
            "required": ["assessmentId", "enrollmentId", "score"]
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
