// Package docs holds the OpenAPI document served at /swagger when
// SWAGGER_ENABLED is set. Keep it in sync with the godoc annotations of the
// handlers (swag init -g cmd/botd/main.go -o docs).
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
    "basePath": "/",
    "paths": {
        "{{.BasePath}}/bots/{bot}/intents": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Training data"
                ],
                "summary": "Add an intent",
                "operationId": "addIntent",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Acting user",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Idempotency key for safe retries",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Payload",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.NameRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/handlers.CreatedResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Already exists",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Training data"
                ],
                "summary": "List intents",
                "operationId": "listIntents",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/services.NamedItem"
                            }
                        }
                    }
                }
            }
        },
        "{{.BasePath}}/bots/{bot}/entities": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Training data"
                ],
                "summary": "Add an entity",
                "operationId": "addEntity",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Acting user",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Idempotency key for safe retries",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Payload",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.NameRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/handlers.CreatedResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Already exists",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Training data"
                ],
                "summary": "List entities",
                "operationId": "listEntities",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/services.NamedItem"
                            }
                        }
                    }
                }
            }
        },
        "{{.BasePath}}/bots/{bot}/actions": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Training data"
                ],
                "summary": "Add an action",
                "operationId": "addAction",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Acting user",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Idempotency key for safe retries",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Payload",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.NameRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/handlers.CreatedResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Already exists",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Training data"
                ],
                "summary": "List actions",
                "operationId": "listActions",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/services.NamedItem"
                            }
                        }
                    }
                }
            }
        },
        "{{.BasePath}}/bots/{bot}/training-examples": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Training data"
                ],
                "summary": "Add a training example",
                "operationId": "addTrainingExample",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Acting user",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Idempotency key for safe retries",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Payload",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.TrainingExampleRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/handlers.CreatedResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Already exists",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "{{.BasePath}}/bots/{bot}/intents/{intent}/training-examples": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Training data"
                ],
                "summary": "List the training examples of an intent",
                "operationId": "getTrainingExamples",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Intent name",
                        "name": "intent",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/services.ExampleItem"
                            }
                        }
                    }
                }
            }
        },
        "{{.BasePath}}/bots/{bot}/training-examples/search": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Training data"
                ],
                "summary": "Search training data",
                "operationId": "searchTrainingExamples",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Query text",
                        "name": "q",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "maximum": 50,
                        "minimum": 1,
                        "description": "Maximum results",
                        "name": "k",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.SearchResponse"
                        }
                    },
                    "400": {
                        "description": "Missing query",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "{{.BasePath}}/bots/{bot}/documents/{collection}/{id}": {
            "delete": {
                "tags": [
                    "Training data"
                ],
                "summary": "Remove a document",
                "operationId": "removeDocument",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Collection name",
                        "name": "collection",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Record id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "400": {
                        "description": "Unknown collection",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "unable to remove document",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "{{.BasePath}}/bots/{bot}/training-data": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Export"
                ],
                "summary": "Export NLU training data",
                "operationId": "getTrainingData",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "ETag of a cached export",
                        "name": "If-None-Match",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "304": {
                        "description": "Not modified"
                    },
                    "500": {
                        "description": "Storage failure",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "{{.BasePath}}/bots/{bot}/domain": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Export"
                ],
                "summary": "Export the bot domain",
                "operationId": "getDomain",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "ETag of a cached export",
                        "name": "If-None-Match",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "304": {
                        "description": "Not modified"
                    },
                    "500": {
                        "description": "Storage failure",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "{{.BasePath}}/bots/{bot}/stories": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Export"
                ],
                "summary": "Export stories",
                "operationId": "getStories",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "ETag of a cached export",
                        "name": "If-None-Match",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "304": {
                        "description": "Not modified"
                    },
                    "500": {
                        "description": "Storage failure",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "{{.BasePath}}/bots/{bot}/config": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Export"
                ],
                "summary": "Export the pipeline config",
                "operationId": "getConfig",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "ETag of a cached export",
                        "name": "If-None-Match",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "304": {
                        "description": "Not modified"
                    },
                    "500": {
                        "description": "Storage failure",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "{{.BasePath}}/bots/{bot}/channels/whatsapp": {
            "put": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Channels"
                ],
                "summary": "Configure the WhatsApp channel",
                "operationId": "putWhatsAppConfig",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Acting user",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Credentials",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.ChannelConfigRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ChannelConfigResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid credentials",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Channels"
                ],
                "summary": "Show the WhatsApp channel configuration",
                "operationId": "getWhatsAppConfig",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ChannelConfigResponse"
                        }
                    },
                    "404": {
                        "description": "channel not configured for bot",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/channels/whatsapp/{bot}": {
            "get": {
                "produces": [
                    "text/plain"
                ],
                "tags": [
                    "Webhooks"
                ],
                "summary": "WhatsApp webhook verification",
                "operationId": "verifyWhatsApp",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Verify token",
                        "name": "hub.verify_token",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Challenge to echo",
                        "name": "hub.challenge",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "The challenge, or a failure status object",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "channel not configured for bot",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "text/plain"
                ],
                "tags": [
                    "Webhooks"
                ],
                "summary": "WhatsApp webhook delivery",
                "operationId": "whatsAppWebhook",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Bot id",
                        "name": "bot",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "sha256=<hex HMAC of the body>",
                        "name": "X-Hub-Signature-256",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "success | not validated",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "400": {
                        "description": "Malformed payload",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "channel not configured for bot",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "413": {
                        "description": "Payload too large",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {
                    "type": "string",
                    "example": "123e4567-e89b-12d3-a456-426614174000"
                },
                "code": {
                    "type": "string",
                    "example": "not_found"
                },
                "message": {
                    "type": "string",
                    "example": "unable to remove document"
                }
            }
        },
        "handlers.NameRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string",
                    "example": "greet"
                }
            },
            "required": [
                "name"
            ]
        },
        "handlers.TrainingExampleRequest": {
            "type": "object",
            "properties": {
                "intent": {
                    "type": "string",
                    "example": "request_restaurant"
                },
                "text": {
                    "type": "string",
                    "example": "find a [cheap](price) place in [berlin](location)"
                }
            },
            "required": [
                "intent",
                "text"
            ]
        },
        "handlers.CreatedResponse": {
            "type": "object",
            "properties": {
                "_id": {
                    "type": "string",
                    "example": "01927a4e-52b4-7c4e-9a43-8f6f0f4e2b1d"
                },
                "message": {
                    "type": "string",
                    "example": "Intent added successfully!"
                }
            }
        },
        "handlers.SearchResponse": {
            "type": "object",
            "properties": {
                "query": {
                    "type": "string"
                },
                "results": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/search.Result"
                    }
                }
            }
        },
        "search.Result": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "kind": {
                    "type": "string"
                },
                "text": {
                    "type": "string"
                },
                "score": {
                    "type": "number"
                }
            }
        },
        "services.NamedItem": {
            "type": "object",
            "properties": {
                "_id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                }
            }
        },
        "services.ExampleItem": {
            "type": "object",
            "properties": {
                "_id": {
                    "type": "string"
                },
                "text": {
                    "type": "string"
                }
            }
        },
        "handlers.ChannelConfigRequest": {
            "type": "object",
            "properties": {
                "bsp_type": {
                    "type": "string",
                    "enum": [
                        "meta",
                        "360dialog"
                    ],
                    "example": "meta"
                },
                "verify_token": {
                    "type": "string",
                    "example": "my-verify-token"
                },
                "app_secret": {
                    "type": "string"
                },
                "access_token": {
                    "type": "string"
                },
                "api_key": {
                    "type": "string"
                }
            },
            "required": [
                "verify_token"
            ]
        },
        "handlers.ChannelConfigResponse": {
            "type": "object",
            "properties": {
                "bot": {
                    "type": "string"
                },
                "channel": {
                    "type": "string"
                },
                "bsp_type": {
                    "type": "string"
                },
                "verify_token": {
                    "type": "string"
                },
                "app_secret": {
                    "type": "string"
                },
                "access_token": {
                    "type": "string"
                },
                "api_key": {
                    "type": "string"
                },
                "user": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
// Data API paths are rendered under BasePath; webhooks stay at the root.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Bot backend API",
	Description:      "Training data API and messaging channel webhooks of a multi-tenant bot backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
