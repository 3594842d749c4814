// Package docs registers the OpenAPI document of the tableflow API with swag.
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
        "/": {
            "get": {
                "produces": ["text/plain"],
                "summary": "Usage",
                "responses": {"200": {"description": "OK", "schema": {"type": "string"}}}
            }
        },
        "/table/{table}": {
            "get": {
                "produces": ["application/json"],
                "summary": "List table items",
                "parameters": [
                    {"type": "integer", "description": "Table ID", "name": "table", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/order.Item"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "string"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "string"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["text/plain"],
                "summary": "Add item",
                "parameters": [
                    {"type": "integer", "description": "Table ID", "name": "table", "in": "path", "required": true},
                    {"description": "Item", "name": "item", "in": "body", "required": true, "schema": {"$ref": "#/definitions/order.Payload"}}
                ],
                "responses": {
                    "200": {"description": "Inserted", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"type": "string"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "string"}}
                }
            }
        },
        "/table/{table}/item/{item_id}": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["text/plain"],
                "summary": "Update item",
                "parameters": [
                    {"type": "integer", "description": "Table ID", "name": "table", "in": "path", "required": true},
                    {"type": "string", "description": "Item ID", "name": "item_id", "in": "path", "required": true},
                    {"description": "Item", "name": "item", "in": "body", "required": true, "schema": {"$ref": "#/definitions/order.Payload"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"type": "string"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "string"}}
                }
            },
            "delete": {
                "produces": ["text/plain"],
                "summary": "Delete item",
                "parameters": [
                    {"type": "integer", "description": "Table ID", "name": "table", "in": "path", "required": true},
                    {"type": "string", "description": "Item ID", "name": "item_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Deleted", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"type": "string"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "order.Item": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "cook_time": {"type": "integer"}
            }
        },
        "order.Payload": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "cook_time": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "tableflow API",
	Description:      "Per-table restaurant orders",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
