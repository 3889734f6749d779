// Package docs registers the OpenAPI document served under /swagger.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Service health with dependency checks",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}},
                    "503": {"description": "Degraded", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/api/attributes/default": {
            "get": {
                "produces": ["application/json"],
                "summary": "Default attribute vector and its synergy score",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SynergyResponse"}}}
            }
        },
        "/api/attributes/randomize": {
            "post": {
                "produces": ["application/json"],
                "summary": "Random attribute vector and its synergy score",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SynergyResponse"}}}
            }
        },
        "/api/synergy": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Five-attribute synergy score and pairwise matrix",
                "parameters": [{"in": "body", "name": "vector", "required": true, "schema": {"$ref": "#/definitions/creativity.AttributeVector"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SynergyResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/prompts": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Compose a prompt from an attribute vector",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.PromptRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.PromptResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/prompts/recent": {
            "get": {
                "produces": ["application/json"],
                "summary": "Recently composed prompts, newest first",
                "parameters": [{"in": "query", "name": "limit", "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/canvas/frame": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Score one frame of the creativity grid",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.FrameRequest"}}],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/canvas/stream": {
            "get": {
                "produces": ["text/event-stream"],
                "summary": "Stream animated grid frames as server-sent events",
                "parameters": [
                    {"in": "query", "name": "alpha", "type": "number"},
                    {"in": "query", "name": "beta", "type": "number"},
                    {"in": "query", "name": "gamma", "type": "number"},
                    {"in": "query", "name": "delta", "type": "number"},
                    {"in": "query", "name": "theta", "type": "number"},
                    {"in": "query", "name": "cols", "type": "integer"},
                    {"in": "query", "name": "rows", "type": "integer"},
                    {"in": "query", "name": "iteration", "type": "integer"},
                    {"in": "query", "name": "playing", "type": "boolean"},
                    {"in": "query", "name": "frames", "type": "integer"},
                    {"in": "query", "name": "cells", "type": "boolean"}
                ],
                "responses": {"200": {"description": "Event stream"}}
            }
        }
    },
    "definitions": {
        "creativity.AttributeVector": {
            "type": "object",
            "properties": {
                "subject": {"type": "number"},
                "style": {"type": "number"},
                "mood": {"type": "number"},
                "detail": {"type": "number"},
                "context": {"type": "number"}
            }
        },
        "creativity.ScoreParameters": {
            "type": "object",
            "properties": {
                "alpha": {"type": "number"},
                "beta": {"type": "number"},
                "gamma": {"type": "number"},
                "delta": {"type": "number"},
                "theta": {"type": "number"}
            }
        },
        "types.SynergyResponse": {
            "type": "object",
            "properties": {
                "score": {"type": "number"},
                "linear_sum": {"type": "number"},
                "synergy": {"type": "number"},
                "matrix": {"type": "array", "items": {"type": "object"}}
            }
        },
        "types.PromptRequest": {
            "type": "object",
            "properties": {
                "subject": {"type": "number"},
                "style": {"type": "number"},
                "mood": {"type": "number"},
                "detail": {"type": "number"},
                "context": {"type": "number"},
                "threshold": {"type": "number"},
                "lead": {"type": "string"}
            }
        },
        "types.PromptResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "created_at": {"type": "string"},
                "prompt": {"type": "string"},
                "selected_phrases": {"type": "object", "additionalProperties": {"type": "string"}},
                "twist_applied": {"type": "string"},
                "score": {"type": "number"},
                "threshold": {"type": "number"},
                "threshold_met": {"type": "boolean"}
            }
        },
        "types.FrameRequest": {
            "type": "object",
            "properties": {
                "params": {"$ref": "#/definitions/creativity.ScoreParameters"},
                "cols": {"type": "integer"},
                "rows": {"type": "integer"},
                "width": {"type": "integer"},
                "height": {"type": "integer"},
                "cell_size": {"type": "integer"},
                "iteration": {"type": "integer"},
                "seed": {"type": "integer"},
                "include_cells": {"type": "boolean"}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "version": {"type": "string"},
                "timestamp": {"type": "string"},
                "checks": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "http_status": {"type": "integer"},
                "request_id": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Creative-o-Meter API",
	Description:      "Synergy scoring, prompt composition and the animated creativity canvas.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
