// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Overview
//
// This package offers helper functions for JSON encoding/decoding, error responses,
// path parameter parsing, and the middleware the API server is assembled from.
//
// # Response Helpers
//
// JSON responses:
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteCreated(w, resource)
//	httputil.WriteAccepted(w, receipt)
//
// Error responses:
//
//	httputil.WriteError(w, http.StatusBadRequest, err)
//	httputil.WriteBadRequest(w, "Invalid input")
//	httputil.WriteNotFound(w, "customer not found")
//
// # Request Parsing
//
// JSON parsing:
//
//	var req CreateCustomerRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
// Path parameters:
//
//	raw, err := httputil.PathParam(r, "id")
//	userID, err := httputil.ParsePathUUID(r, "user_id")
//
// # Middleware
//
// Request correlation and panic recovery:
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.RecoveryMiddleware(logger),
//	)(router)
package httputil
