// Package docs registers the OpenAPI description served at /swagger/*.
// Regenerate with: swag init -g cmd/server/main.go -o docs
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
        "/auth/sign-in": {
            "post": {
                "tags": ["auth"],
                "summary": "Sign in",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.signInRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.TokenPair"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/sign-up": {
            "post": {
                "tags": ["auth"],
                "summary": "Sign up",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.signUpRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.UserView"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/refresh-token": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Refresh tokens",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.refreshRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.TokenPair"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Current identity",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Claims"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Change password",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.changePasswordRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/api-key": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Reveal API key",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.apiKeyResponse"}}}
            }
        },
        "/auth/api-key/rotate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Rotate API key",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.apiKeyResponse"}}}
            }
        },
        "/auth/api-key/me": {
            "get": {
                "security": [{"APIKeyAuth": []}],
                "tags": ["auth"],
                "summary": "Identify by API key",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.UserView"}}}
            }
        },
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "List users",
                "parameters": [
                    {"type": "integer", "description": "Page, 1-indexed", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Items per page", "name": "perPage", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Create user",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createUserRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.UserView"}}}
            }
        },
        "/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Get user",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.UserView"}}, "404": {"description": "Not Found"}}
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Update user",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateUserRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.UserView"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Delete user",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/users/{id}/role": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Change role",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.changeRoleRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.UserView"}}}
            }
        }
    },
    "definitions": {
        "domain.Claims": {
            "type": "object",
            "properties": {
                "id": {"type": "string"}, "email": {"type": "string"}, "username": {"type": "string"},
                "name": {"type": "string"}, "role": {"type": "string", "enum": ["USER", "ADMIN"]}
            }
        },
        "domain.TokenPair": {
            "type": "object",
            "properties": {"accessToken": {"type": "string"}, "refreshToken": {"type": "string"}}
        },
        "domain.UserView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"}, "email": {"type": "string"}, "username": {"type": "string"},
                "name": {"type": "string"}, "role": {"type": "string", "enum": ["USER", "ADMIN"]},
                "createdAt": {"type": "string"}, "updatedAt": {"type": "string"}
            }
        },
        "handler.apiKeyResponse": {"type": "object", "properties": {"apiKey": {"type": "string"}}},
        "handler.changePasswordRequest": {
            "type": "object",
            "required": ["currentPassword", "newPassword"],
            "properties": {"currentPassword": {"type": "string"}, "newPassword": {"type": "string", "minLength": 8, "maxLength": 72}}
        },
        "handler.changeRoleRequest": {
            "type": "object",
            "required": ["role"],
            "properties": {"role": {"type": "string", "enum": ["USER", "ADMIN"]}}
        },
        "handler.createUserRequest": {
            "type": "object",
            "required": ["email", "username", "name", "password"],
            "properties": {
                "email": {"type": "string", "maxLength": 150}, "username": {"type": "string", "minLength": 4, "maxLength": 16},
                "name": {"type": "string", "minLength": 3, "maxLength": 100}, "password": {"type": "string", "minLength": 8, "maxLength": 72},
                "role": {"type": "string", "enum": ["USER", "ADMIN"]}
            }
        },
        "handler.errorResponse": {"type": "object", "properties": {"error": {"type": "string"}}},
        "handler.messageResponse": {"type": "object", "properties": {"message": {"type": "string"}}},
        "handler.refreshRequest": {"type": "object", "required": ["refreshToken"], "properties": {"refreshToken": {"type": "string"}}},
        "handler.signInRequest": {"type": "object", "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "handler.signUpRequest": {
            "type": "object",
            "required": ["email", "username", "name", "password"],
            "properties": {
                "email": {"type": "string", "maxLength": 150}, "username": {"type": "string", "minLength": 4, "maxLength": 16},
                "name": {"type": "string", "minLength": 3, "maxLength": 100}, "password": {"type": "string", "minLength": 8, "maxLength": 72}
            }
        },
        "handler.updateUserRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "username": {"type": "string"}, "name": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "APIKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"},
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Identity Service API",
	Description:      "Authentication, token issuance and user management.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
