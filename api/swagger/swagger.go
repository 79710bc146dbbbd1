package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Member Console API",
        "description": "Operator console over the member service: directory views, bulk care-team assignment and membership lifecycle",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Directory", "description": "Paginated member directory views"},
        {"name": "Selection", "description": "Row selection and bulk navigator/doctor assignment"},
        {"name": "Subscriptions", "description": "Registration, premium membership and packages"},
        {"name": "Packages", "description": "Package catalog"},
        {"name": "Audit", "description": "Console audit trail"},
        {"name": "Observability", "description": "Health and metrics"}
    ],
    "paths": {
        "/directory/views": {
            "post": {
                "tags": ["Directory"],
                "summary": "Open a directory view",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/OpenViewRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/directory/views/{viewId}": {
            "get": {
                "tags": ["Directory"],
                "summary": "Get a directory view snapshot",
                "parameters": [
                    {"name": "viewId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown view", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Directory"],
                "summary": "Close a directory view",
                "parameters": [
                    {"name": "viewId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/directory/views/{viewId}/members": {
            "get": {
                "tags": ["Directory"],
                "summary": "Query members into a directory view",
                "description": "Parameters other than the listed ones are forwarded to the member service as filters.",
                "parameters": [
                    {"name": "viewId", "in": "path", "required": true, "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sortBy", "in": "query", "type": "string"},
                    {"name": "sortOrder", "in": "query", "type": "string", "enum": ["asc", "desc"]},
                    {"name": "mode", "in": "query", "type": "string", "enum": ["replace", "append"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Directory"],
                "summary": "Create a member from a directory view",
                "parameters": [
                    {"name": "viewId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MemberProfile"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/directory/views/{viewId}/members/more": {
            "post": {
                "tags": ["Directory"],
                "summary": "Append the next page to a directory view",
                "parameters": [
                    {"name": "viewId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/directory/views/{viewId}/members/rank": {
            "get": {
                "tags": ["Directory"],
                "summary": "Fuzzy rank the buffered members",
                "parameters": [
                    {"name": "viewId", "in": "path", "required": true, "type": "string"},
                    {"name": "q", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/directory/views/{viewId}/members/{id}": {
            "patch": {
                "tags": ["Directory"],
                "summary": "Update the profile of a buffered member",
                "parameters": [
                    {"name": "viewId", "in": "path", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MemberProfile"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Directory"],
                "summary": "Delete a buffered member",
                "parameters": [
                    {"name": "viewId", "in": "path", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/directory/views/{viewId}/refresh": {
            "post": {
                "tags": ["Directory"],
                "summary": "Reload the first page of the last query",
                "parameters": [
                    {"name": "viewId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/directory/views/{viewId}/export": {
            "get": {
                "tags": ["Directory"],
                "summary": "Export the buffered members",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "viewId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/directory/views/{viewId}/selection": {
            "delete": {
                "tags": ["Selection"],
                "summary": "Clear the selection",
                "parameters": [
                    {"name": "viewId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/directory/views/{viewId}/selection/toggle": {
            "post": {
                "tags": ["Selection"],
                "summary": "Toggle one member in the selection",
                "parameters": [
                    {"name": "viewId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ToggleSelectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/directory/views/{viewId}/selection/all": {
            "post": {
                "tags": ["Selection"],
                "summary": "Select members, or the whole buffer when none are given",
                "parameters": [
                    {"name": "viewId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/SelectAllRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/directory/views/{viewId}/selection/status": {
            "get": {
                "tags": ["Selection"],
                "summary": "Aggregate assignment status of the selection",
                "parameters": [
                    {"name": "viewId", "in": "path", "required": true, "type": "string"},
                    {"name": "role", "in": "query", "required": true, "type": "string", "enum": ["navigator", "doctor"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/directory/views/{viewId}/selection/assign": {
            "post": {
                "tags": ["Selection"],
                "summary": "Assign a navigator or doctor to every selected member",
                "parameters": [
                    {"name": "viewId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkAssignRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Assignment already running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/members/{id}/subscriptions": {
            "get": {
                "tags": ["Subscriptions"],
                "summary": "Membership and package details of a member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "cached", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Subscriptions"],
                "summary": "Subscribe a member to a catalog package",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddPackageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown package", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/members/{id}/subscriptions/session": {
            "delete": {
                "tags": ["Subscriptions"],
                "summary": "Close the details session of a member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/members/{id}/membership/register": {
            "post": {
                "tags": ["Subscriptions"],
                "summary": "Register a member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid lifecycle state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/members/{id}/membership/premium": {
            "post": {
                "tags": ["Subscriptions"],
                "summary": "Activate a premium membership",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid lifecycle state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/members/{id}/membership/renewal": {
            "post": {
                "tags": ["Subscriptions"],
                "summary": "Renew an active premium membership",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid lifecycle state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/members/{id}/audit": {
            "get": {
                "tags": ["Audit"],
                "summary": "Console actions recorded for a member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/packages": {
            "get": {
                "tags": ["Packages"],
                "summary": "List active catalog packages",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/packages/cache": {
            "delete": {
                "tags": ["Packages"],
                "summary": "Drop the cached catalog",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "Aggregated console metrics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "OpenViewRequest": {
            "type": "object",
            "properties": {
                "isStudent": {"type": "boolean"},
                "excludeType": {"type": "string"}
            }
        },
        "MemberProfile": {
            "type": "object",
            "properties": {
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "isStudent": {"type": "boolean"},
                "grade": {"type": "string"},
                "section": {"type": "string"},
                "primaryMemberId": {"type": "string"}
            },
            "required": ["firstName"]
        },
        "ToggleSelectionRequest": {
            "type": "object",
            "properties": {
                "memberId": {"type": "string"}
            },
            "required": ["memberId"]
        },
        "SelectAllRequest": {
            "type": "object",
            "properties": {
                "memberIds": {"type": "array", "items": {"type": "string"}}
            }
        },
        "BulkAssignRequest": {
            "type": "object",
            "properties": {
                "role": {"type": "string", "enum": ["navigator", "doctor"]},
                "roleId": {"type": "string"}
            },
            "required": ["role", "roleId"]
        },
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "applyDiscount": {"type": "boolean"}
            }
        },
        "AddPackageRequest": {
            "type": "object",
            "properties": {
                "packageId": {"type": "string"}
            },
            "required": ["packageId"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pages": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "has_more": {"type": "boolean"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
