// Package docs registers the swagger document of the contest API.
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
        "/contests/{id}": {
            "get": {
                "description": "Public view of a contest, including its participant count and published winners",
                "produces": ["application/json"],
                "tags": ["contests"],
                "summary": "Get contest by ID",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Contest ID (###### or F######)",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ContestResponse"}},
                    "400": {"description": "Malformed ID", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "404": {"description": "Contest not found", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/me/contests": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "description": "Contests created by the current user, active first",
                "produces": ["application/json"],
                "tags": ["contests"],
                "summary": "Get my contests",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.ContestResponse"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/stats": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "description": "Total contests, participants and unique users. Operators only.",
                "produces": ["application/json"],
                "tags": ["contests"],
                "summary": "Get statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.StatsResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "403": {"description": "Not an operator", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.ContestResponse": {
            "description": "Public view of a contest",
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "123456"},
                "fast": {"type": "boolean", "example": false},
                "active": {"type": "boolean", "example": true},
                "conditions": {"type": "string", "example": "Comment under the post"},
                "subscription_text": {"type": "string", "example": "Subscribe to both channels"},
                "channels": {"type": "array", "items": {"type": "string"}, "example": ["c1", "c2"]},
                "winner_count": {"type": "integer", "example": 2},
                "channel": {"type": "string", "example": "mychannel"},
                "duration_minutes": {"type": "integer", "example": 5},
                "participants": {"type": "integer", "example": 42},
                "winners": {"type": "array", "items": {"$ref": "#/definitions/models.Winner"}},
                "results_link": {"type": "string", "example": "https://example.com/results"},
                "created_at": {"type": "string"}
            }
        },
        "dto.StatsResponse": {
            "description": "Registry statistics",
            "type": "object",
            "properties": {
                "contests": {"type": "integer", "example": 12},
                "participants": {"type": "integer", "example": 340},
                "unique_users": {"type": "integer", "example": 290}
            }
        },
        "models.Winner": {
            "type": "object",
            "properties": {
                "user_id": {"type": "integer"},
                "username": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "middleware.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "details": {"type": "object"}
                    }
                },
                "timestamp": {"type": "string"},
                "request_id": {"type": "string"},
                "path": {"type": "string"},
                "method": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "TelegramInitData": {
            "description": "Telegram Mini App init data",
            "type": "apiKey",
            "name": "X-Telegram-Init-Data",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Contest Bot API",
	Description:      "Read-only API of the Telegram contest bot.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
