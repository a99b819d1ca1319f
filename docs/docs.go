// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with `swag init -g cmd/main.go` after changing handler annotations.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/health": {"get": {"tags": ["system"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}},
        "/auth/sign-up": {"post": {"tags": ["auth"], "summary": "Register an operator", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/auth/sign-in": {"post": {"tags": ["auth"], "summary": "Issue an operator token", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/api/v1/state": {"get": {"security": [{"BearerAuth": []}], "tags": ["device"], "summary": "Get regulator state", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/events": {"post": {"security": [{"BearerAuth": []}], "tags": ["device"], "summary": "Send navigation event", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/api/v1/coefficients": {"post": {"security": [{"BearerAuth": []}], "tags": ["device"], "summary": "Adjust coefficients", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/api/v1/setpoint": {"post": {"security": [{"BearerAuth": []}], "tags": ["device"], "summary": "Change setpoint", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/api/v1/heat": {"post": {"security": [{"BearerAuth": []}], "tags": ["device"], "summary": "Start or stop heating", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/api/v1/alarm/ack": {"post": {"security": [{"BearerAuth": []}], "tags": ["device"], "summary": "Acknowledge alarm", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/api/v1/calibration": {"post": {"security": [{"BearerAuth": []}], "tags": ["device"], "summary": "Drive the thermocouple calibration wizard", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/api/v1/autotune": {"post": {"security": [{"BearerAuth": []}], "tags": ["device"], "summary": "Drive the PID autotune", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/api/v1/touch": {"post": {"security": [{"BearerAuth": []}], "tags": ["device"], "summary": "Touch panel calibration and test", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/api/v1/wipe": {"post": {"security": [{"BearerAuth": []}], "tags": ["device"], "summary": "Wipe stored settings", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/api/v1/profiles": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["profiles"], "summary": "List heating profiles", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["profiles"], "summary": "Store a heating profile", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/v1/profiles/select": {"post": {"security": [{"BearerAuth": []}], "tags": ["profiles"], "summary": "Select the active profile", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/api/v1/logs/": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["logs"], "summary": "List device events", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["logs"], "summary": "Prune device events", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Temperature regulator API",
	Description:      "Remote control and telemetry for the thermocouple heater regulator.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
