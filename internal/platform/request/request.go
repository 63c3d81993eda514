// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taibuivan/gitpress/internal/platform/apperr"
	"github.com/taibuivan/gitpress/internal/platform/ctxutil"
	"github.com/taibuivan/gitpress/internal/platform/sec"
	"github.com/taibuivan/gitpress/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
ActiveUser extracts the session payload from the request context.

Returns nil if the request is anonymous.
*/
func ActiveUser(request *http.Request) *sec.ActiveUser {
	return ctxutil.GetActiveUser(request.Context())
}

/*
RequiredActiveUser ensures the request carries a session and returns its payload.

Returns:
  - *sec.ActiveUser: The active user payload
  - error: apperr.Unauthorized if the request is anonymous
*/
func RequiredActiveUser(request *http.Request) (*sec.ActiveUser, error) {

	// Get the session payload
	activeUser := ctxutil.GetActiveUser(request.Context())

	// If the request is anonymous, return an error
	if activeUser == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return activeUser, nil
}
