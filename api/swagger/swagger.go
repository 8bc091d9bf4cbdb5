package swagger

import "github.com/swaggo/swag"

// Probe routes (/health, /ready, /metrics) live outside basePath and are not listed.
const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA ADP Attendance Console",
        "description": "List pages, bulk operations and exports for the attendance dashboard",
        "version": "0.2.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "security": [
        {
            "BearerAuth": []
        }
    ],
    "tags": [
        {
            "name": "Pages",
            "description": "Filtered, sorted and paginated lists"
        },
        {
            "name": "Selection",
            "description": "Row selection"
        },
        {
            "name": "Bulk",
            "description": "Confirmed bulk operations"
        },
        {
            "name": "Rows",
            "description": "Row expansion and soft delete"
        },
        {
            "name": "Session",
            "description": "Console session and toasts"
        },
        {
            "name": "Exports",
            "description": "Signed export downloads"
        },
        {
            "name": "Health",
            "description": "Probes and metrics"
        }
    ],
    "paths": {
        "/session": {
            "get": {
                "tags": [
                    "Session"
                ],
                "summary": "Current console session",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    }
                }
            },
            "delete": {
                "tags": [
                    "Session"
                ],
                "summary": "End the console session",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Session closed"
                    }
                }
            }
        },
        "/toasts": {
            "get": {
                "tags": [
                    "Session"
                ],
                "summary": "Drain pending toasts",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    }
                }
            }
        },
        "/pages": {
            "get": {
                "tags": [
                    "Pages"
                ],
                "summary": "List pages and their capabilities",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    }
                }
            }
        },
        "/pages/{page}": {
            "get": {
                "tags": [
                    "Pages"
                ],
                "summary": "Derived list view",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    }
                }
            }
        },
        "/pages/{page}/refresh": {
            "post": {
                "tags": [
                    "Pages"
                ],
                "summary": "Refetch the collection",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    },
                    "409": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Page busy"
                    }
                }
            }
        },
        "/pages/{page}/search": {
            "put": {
                "tags": [
                    "Pages"
                ],
                "summary": "Update search text",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SearchRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    }
                }
            }
        },
        "/pages/{page}/filters/{category}": {
            "put": {
                "tags": [
                    "Pages"
                ],
                "summary": "Replace a filter category",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    },
                    {
                        "name": "category",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/FilterRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    }
                }
            }
        },
        "/pages/{page}/filters": {
            "delete": {
                "tags": [
                    "Pages"
                ],
                "summary": "Clear search, filters and sort",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    }
                }
            }
        },
        "/pages/{page}/sort": {
            "post": {
                "tags": [
                    "Pages"
                ],
                "summary": "Sort the list",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SortRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    }
                }
            }
        },
        "/pages/{page}/pagination": {
            "put": {
                "tags": [
                    "Pages"
                ],
                "summary": "Change page or page size",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/PaginationRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    }
                }
            }
        },
        "/pages/{page}/suggest": {
            "get": {
                "tags": [
                    "Pages"
                ],
                "summary": "Quick-jump suggestions",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    },
                    {
                        "name": "q",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    }
                }
            }
        },
        "/pages/{page}/selection/toggle": {
            "post": {
                "tags": [
                    "Selection"
                ],
                "summary": "Toggle one row",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SelectionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    },
                    "409": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Page busy"
                    }
                }
            }
        },
        "/pages/{page}/selection/visible": {
            "post": {
                "tags": [
                    "Selection"
                ],
                "summary": "Select visible rows",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    },
                    "409": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Page busy"
                    }
                }
            }
        },
        "/pages/{page}/selection": {
            "delete": {
                "tags": [
                    "Selection"
                ],
                "summary": "Clear selection",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    },
                    "409": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Page busy"
                    }
                }
            }
        },
        "/pages/{page}/bulk": {
            "post": {
                "tags": [
                    "Bulk"
                ],
                "summary": "Request a bulk operation",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/BulkRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    },
                    "409": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Page busy"
                    }
                }
            }
        },
        "/pages/{page}/bulk/confirm": {
            "post": {
                "tags": [
                    "Bulk"
                ],
                "summary": "Confirm the pending operation",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    },
                    "409": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Page busy"
                    }
                }
            }
        },
        "/pages/{page}/bulk/cancel": {
            "post": {
                "tags": [
                    "Bulk"
                ],
                "summary": "Cancel the pending operation",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    },
                    "409": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Page busy"
                    }
                }
            }
        },
        "/pages/{page}/bulk/dismiss": {
            "post": {
                "tags": [
                    "Bulk"
                ],
                "summary": "Dismiss a finished operation",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    }
                }
            }
        },
        "/pages/{page}/rows/{id}/details": {
            "get": {
                "tags": [
                    "Rows"
                ],
                "summary": "Expanded row details",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    }
                }
            },
            "delete": {
                "tags": [
                    "Rows"
                ],
                "summary": "Drop cached row details",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Dropped"
                    }
                }
            }
        },
        "/pages/{page}/rows/{id}/soft-delete": {
            "post": {
                "tags": [
                    "Rows"
                ],
                "summary": "Archive or deactivate a row",
                "parameters": [
                    {
                        "name": "X-Session-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "students",
                            "schedules",
                            "rfid-logs"
                        ]
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SoftDeleteRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid input"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Unknown page"
                    },
                    "409": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Page busy"
                    }
                }
            }
        },
        "/exports/{token}": {
            "get": {
                "security": [],
                "tags": [
                    "Exports"
                ],
                "summary": "Download an export",
                "produces": [
                    "text/csv",
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "name": "token",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File"
                    },
                    "404": {
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        },
                        "description": "Invalid or expired link"
                    }
                }
            }
        }
    },
    "definitions": {
        "SearchRequest": {
            "type": "object",
            "properties": {
                "text": {
                    "type": "string",
                    "maxLength": 200
                },
                "immediate": {
                    "type": "boolean"
                }
            }
        },
        "FilterRequest": {
            "type": "object",
            "properties": {
                "values": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "SortRequest": {
            "type": "object",
            "properties": {
                "field": {
                    "type": "string"
                },
                "order": {
                    "type": "string",
                    "enum": [
                        "asc",
                        "desc"
                    ]
                }
            },
            "required": [
                "field"
            ]
        },
        "PaginationRequest": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer",
                    "minimum": 1
                },
                "page_size": {
                    "type": "integer",
                    "minimum": 1,
                    "maximum": 200
                }
            }
        },
        "SelectionRequest": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                }
            },
            "required": [
                "id"
            ]
        },
        "BulkRequest": {
            "type": "object",
            "properties": {
                "kind": {
                    "type": "string",
                    "enum": [
                        "status-update", "notify", "export", "archive", "delete", "duplicate"
                    ]
                },
                "payload": {
                    "type": "object"
                }
            },
            "required": [
                "kind"
            ]
        },
        "SoftDeleteRequest": {
            "type": "object",
            "properties": {
                "reason": {
                    "type": "string"
                },
                "action": {
                    "type": "string",
                    "enum": [
                        "archive",
                        "deactivate"
                    ]
                }
            },
            "required": [
                "reason"
            ]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_filtered": {
                    "type": "integer"
                },
                "total_pages": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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
