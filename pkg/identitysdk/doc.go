// Package identitysdk holds the wire types of the identity service and a
// small HTTP client for it.
//
// The request types validate themselves with ozzo-validation; the server
// calls Validate before touching any service and the client can do the same
// to fail fast:
//
//	req := identitysdk.PartnerSignupRequest{LoginID: "a@b.com", ...}
//	if err := req.Validate(); err != nil {
//		// err is a validation.Errors keyed by JSON field name
//	}
//
// Every response is wrapped in the service envelope
// {code, message, data, meta}. Client methods unwrap data on success and
// return an *Error carrying the envelope code otherwise:
//
//	c := identitysdk.NewClient("http://localhost:8080")
//	tokens, err := c.PartnerLogin(ctx, identitysdk.PartnerLoginRequest{...})
//	var apiErr *identitysdk.Error
//	if errors.As(err, &apiErr) && apiErr.Code == identitysdk.CodeAccountNotActive {
//		// still waiting for approval
//	}
package identitysdk
