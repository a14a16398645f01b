package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Fulfillment API",
        "description": "Inventory, archive and order management for 3PL customers",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh and session management"},
        {"name": "Customers", "description": "Customer accounts and billing rates"},
        {"name": "Items", "description": "Inventory items with effective cost derivation"},
        {"name": "Archive", "description": "Archived item snapshots"},
        {"name": "Orders", "description": "Outbound fulfillment orders"},
        {"name": "Billing", "description": "Per-customer billing statements"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Token pair issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/customers": {
            "get": {
                "tags": ["Customers"],
                "summary": "List customers",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Customers"],
                "summary": "Create customer",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation failed"}
                }
            }
        },
        "/customers/{id}/billing-report": {
            "get": {
                "tags": ["Billing"],
                "summary": "Billing breakdown for a customer",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Customer not found"}
                }
            }
        },
        "/items": {
            "get": {
                "tags": ["Items"],
                "summary": "List items with effective costs",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Items"],
                "summary": "Create item",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation failed"}
                }
            }
        },
        "/archived-items": {
            "get": {
                "tags": ["Archive"],
                "summary": "List archived items",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/orders": {
            "get": {
                "tags": ["Orders"],
                "summary": "List orders",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "totalPages": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
