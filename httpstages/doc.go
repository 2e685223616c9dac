// Package httpstages provides pipeline handlers for HTTP requests and stages
// for checking the responses.
//
// Get and Fetch are asynchronous handlers: the request runs on its own
// goroutine and the handler resolves when it returns. ParseJSON, ParseJSONTo
// and JSONPath decode the body. Expect and ExpectEqual are handlers that
// finish the run with a *pipeline.ValidationError when the result is wrong.
//
//	p := pipeline.MustNew([]pipeline.Handler{
//	    httpstages.Get(nil, "https://api.example.com/status"),
//	    httpstages.JSONPath("status").Handler(),
//	    httpstages.ExpectEqual("ok"),
//	}, pipeline.WithName("check-api"))
//	status, err := p.RunWait(ctx, nil)
package httpstages
