// Package docs Map Metadata Service API.
//
// Сервис агрегирует map-matched траектории в метаданные дорожного графа:
// структурные и функциональные таблицы рёбер и узлов.
//
// Основные возможности:
// - Запуск прогона агрегации синхронно или через Redis Stream
// - Пространственные запросы к четырём таблицам по точке или многоугольнику
// - Классификация поворотов и направленность рёбер
// - Диагностика последнего прогона
//
// Спецификация ниже поддерживается командой `swag init -g cmd/api/main.go`.
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
        "/api/v1/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object"}}
                }
            }
        },
        "/api/v1/metadata/{table}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Metadata"],
                "summary": "Строки таблицы вокруг точки",
                "parameters": [
                    {"enum": ["edge_structural", "edge_functional", "node_structural", "node_functional"], "type": "string", "name": "table", "in": "path", "required": true},
                    {"type": "number", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "name": "lon", "in": "query", "required": true},
                    {"type": "number", "default": 0.05, "name": "padding", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/metadata/{table}/query": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Metadata"],
                "summary": "Строки таблицы в области",
                "parameters": [
                    {"enum": ["edge_structural", "edge_functional", "node_structural", "node_functional"], "type": "string", "name": "table", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RegionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/edges/{edge}/turns": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Metadata"],
                "summary": "Классификация поворота на ребре",
                "parameters": [
                    {"type": "string", "name": "edge", "in": "path", "required": true},
                    {"type": "number", "name": "from", "in": "query", "required": true},
                    {"type": "number", "name": "to", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/runs": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Runs"],
                "summary": "Пересчёт метаданных",
                "parameters": [
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/dto.RecomputeRequest"}},
                    {"type": "boolean", "name": "async", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/runs/latest": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Runs"],
                "summary": "Диагностика последнего прогона",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.Point": {
            "type": "object",
            "properties": {
                "lat": {"type": "number", "maximum": 90, "minimum": -90},
                "lon": {"type": "number", "maximum": 180, "minimum": -180}
            }
        },
        "dto.RegionRequest": {
            "type": "object",
            "properties": {
                "point": {"$ref": "#/definitions/dto.Point"},
                "padding": {"type": "number"},
                "corners": {"type": "array", "maxItems": 1000, "minItems": 2, "items": {"$ref": "#/definitions/dto.Point"}}
            }
        },
        "dto.RecomputeRequest": {
            "type": "object",
            "properties": {
                "run_id": {"type": "string"},
                "trajectory_path": {"type": "string"},
                "edges_path": {"type": "string"},
                "nodes_path": {"type": "string"}
            }
        },
        "errors.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true}
            }
        },
        "utils.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/errors.AppError"}
            }
        },
        "utils.SuccessResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "meta": {"type": "object"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Map Metadata Service API",
	Description:      "Aggregates map-matched trajectories into road network metadata tables.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
