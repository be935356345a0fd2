// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/board": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Board"],
                "summary": "Current board",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.BoardResponse"}}
                }
            }
        },
        "/board/events": {
            "get": {
                "produces": ["text/event-stream"],
                "tags": ["Board"],
                "summary": "Stream of board snapshots",
                "description": "Sends an event named board on connect and after every change.",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/board/drag-end": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Board"],
                "summary": "Apply a finished drag",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dragdrop.DropResult"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.BoardResponse"}},
                    "400": {"description": "Invalid request"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/tasks": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tasks"],
                "summary": "Add a task to TO DO",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handler.TaskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.BoardResponse"}},
                    "400": {"description": "Invalid request"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/tasks/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tasks"],
                "summary": "Rename a task",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handler.TaskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.BoardResponse"}},
                    "400": {"description": "Invalid request"},
                    "401": {"description": "Unauthorized"}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Tasks"],
                "summary": "Delete a task",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.BoardResponse"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        }
    },
    "definitions": {
        "model.Task": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "string", "enum": ["todo", "done", "inReview", "backlog"]},
                "completed": {"type": "boolean"}
            }
        },
        "handler.TaskRequest": {
            "type": "object",
            "properties": {"title": {"type": "string"}}
        },
        "handler.BoardResponse": {
            "type": "object",
            "properties": {
                "todo": {"type": "array", "items": {"$ref": "#/definitions/model.Task"}},
                "done": {"type": "array", "items": {"$ref": "#/definitions/model.Task"}},
                "inReview": {"type": "array", "items": {"$ref": "#/definitions/model.Task"}},
                "backlog": {"type": "array", "items": {"$ref": "#/definitions/model.Task"}},
                "persist_error": {"type": "string"}
            }
        },
        "dragdrop.Location": {
            "type": "object",
            "properties": {
                "droppableId": {"type": "string", "enum": ["1", "2", "3", "4"]},
                "index": {"type": "integer"}
            }
        },
        "dragdrop.DropResult": {
            "type": "object",
            "properties": {
                "draggableId": {"type": "string"},
                "source": {"$ref": "#/definitions/dragdrop.Location"},
                "destination": {"$ref": "#/definitions/dragdrop.Location"},
                "reason": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Progress Board API",
	Description:      "Four-column task board: add, edit, delete and drag tasks between TO DO, DONE, IN REVIEW and BACKLOG.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
