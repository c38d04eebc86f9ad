package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CTT Evolver Status API",
        "description": "Read-only status of the curriculum timetabling solver",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Runs", "description": "Live progress and persisted solver runs"},
        {"name": "Operations", "description": "Liveness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Operations"],
                "summary": "Health check",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Health"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Operations"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Metrics disabled"}
                }
            }
        },
        "/api/v1/runs": {
            "get": {
                "tags": ["Runs"],
                "summary": "Recent solver runs",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "instance", "in": "query", "type": "string", "description": "Instance name"},
                    {"name": "limit", "in": "query", "type": "integer", "minimum": 1, "maximum": 100, "description": "Maximum number of runs"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RunListEnvelope"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "500": {"description": "Query failed", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/v1/runs/current": {
            "get": {
                "tags": ["Runs"],
                "summary": "Live status of the running solver",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ProgressEnvelope"}}
                }
            }
        },
        "/api/v1/runs/best": {
            "get": {
                "tags": ["Runs"],
                "summary": "Best timetable of the last finished run",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SnapshotEnvelope"}},
                    "404": {"description": "No run finished yet", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Health": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "running": {"type": "boolean"}
            }
        },
        "RunProgress": {
            "type": "object",
            "properties": {
                "runId": {"type": "string"},
                "instance": {"type": "string"},
                "running": {"type": "boolean"},
                "generation": {"type": "integer"},
                "iterations": {"type": "integer"},
                "occupied": {"type": "integer"},
                "voted": {"type": "integer"},
                "bestPenalty": {"type": "integer"},
                "bestFairness": {"type": "integer"},
                "worstPenalty": {"type": "integer"},
                "fairestPenalty": {"type": "integer"},
                "fairestFairness": {"type": "integer"}
            }
        },
        "SolverRun": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "instance": {"type": "string"},
                "generations": {"type": "integer"},
                "generator_success": {"type": "integer"},
                "generator_failure": {"type": "integer"},
                "breeder_success": {"type": "integer"},
                "breeder_failure": {"type": "integer"},
                "eliminated": {"type": "integer"},
                "cancelled": {"type": "boolean"},
                "duration_ms": {"type": "integer"},
                "started_at": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "TimetableSlot": {
            "type": "object",
            "properties": {
                "courseId": {"type": "string"},
                "teacherId": {"type": "string"},
                "roomId": {"type": "string"},
                "day": {"type": "integer"},
                "period": {"type": "integer"}
            }
        },
        "SolutionSnapshot": {
            "type": "object",
            "properties": {
                "runId": {"type": "string"},
                "instance": {"type": "string"},
                "penalty": {"type": "integer"},
                "fairness": {"type": "integer"},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/TimetableSlot"}},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "ProgressEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/RunProgress"},
                "meta": {"type": "object"}
            }
        },
        "RunListEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/SolverRun"}},
                "meta": {"type": "object"}
            }
        },
        "SnapshotEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/SolutionSnapshot"},
                "meta": {"type": "object"}
            }
        },
        "ErrorEnvelope": {
            "type": "object",
            "properties": {
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
