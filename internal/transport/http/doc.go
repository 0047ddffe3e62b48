// Package http implements the HTTP handlers of the dataset exploration API.
// It is a thin layer between transport and business logic: handlers parse
// and validate requests, delegate to services and format responses.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Store
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/dataset/not-found",
//	    "title": "Dataset Not Found",
//	    "status": 404,
//	    "detail": "Dataset 'abc' not found",
//	    "instance": "/api/datasets/abc"
//	}
//
// # WebSocket Support
//
// The websocket handler upgrades the connection with Gorilla WebSocket,
// registers the client with the hub and leaves the pumps to clean up on
// disconnect.
package http
