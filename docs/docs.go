// Package docs holds the OpenAPI document served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/items/{contentItemId}/comments": {
            "get": {
                "tags": ["threads"],
                "summary": "Get one page of a content item's thread",
                "parameters": [
                    {"type": "string", "name": "contentItemId", "in": "path", "required": true},
                    {"type": "integer", "name": "page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/comments": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["threads"],
                "summary": "Create a comment or a single-level reply",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/comments/{commentId}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["threads"],
                "summary": "Edit a comment's content",
                "parameters": [{"type": "string", "name": "commentId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["threads"],
                "summary": "Delete a comment and its replies",
                "parameters": [{"type": "string", "name": "commentId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/comments/{commentId}/vote": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["threads"],
                "summary": "Toggle a vote on a comment",
                "parameters": [{"type": "string", "name": "commentId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/threads",
	Schemes:          []string{},
	Title:            "Thread Service API",
	Description:      "Threaded comments with realtime fan-out.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
