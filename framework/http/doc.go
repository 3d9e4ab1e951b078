// Package http provides request and response helpers for handlers.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//
//	// Decode JSON into a struct and run its validate tags
//	var payload struct {
//	    Name string `json:"name" validate:"required,max=64"`
//	}
//	if err := req.Validate(&payload); err != nil { ... }
//
//	limit := req.QueryInt("limit", 20)
//	id    := req.RouteParam("id")
//
// # Response
//
//	res := gohttp.NewResponse(w)
//	res.Success(data)      // 200 {"data": ...}
//	res.Created(data)      // 201 {"data": ...}
//	res.NotFound()         // 404 {"message": "Not found."}
//	res.Fail(err)          // status picked from the error
package http
