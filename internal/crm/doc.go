// Package crm provides an HTTP client for the lead/CRM REST API.
//
// # Endpoints
//
//   - POST leads/user/accounts?page=N with {can_allocate, user_id, company};
//     the response nests the list under results.accounts
//   - GET leads/lead/view/{id}; the response is the full lead object
//
// Paths resolve beneath the configured API root, so a base of
// https://ulg.unitytelco.com/api/v1 yields /api/v1/leads/....
//
// # Request Handling
//
// All requests:
//   - Use the caller's context plus a client timeout (10s unless configured)
//   - Send Accept: application/json and User-Agent: leaddeck/0.1
//   - Carry a fresh X-Request-ID that is also written to the debug log
//   - Send Authorization: Token <token> when a token is configured
//
// The token is never compiled in; it comes from config, LEADDECK_TOKEN or a
// .env file (see package config).
//
// # Errors
//
// Transport failures are wrapped as "execute request: ...". Non-2xx
// responses return *StatusError with the code and the first 4KiB of the
// body; it implements HTTPStatus/HTTPBody so query.Classify files it under
// http-error. Malformed bodies return "decode response: ...".
//
// # Records
//
// The backend publishes no schema. Lead keeps the whole object in Fields,
// with integral numbers decoded as int64, and offers accessors (ID, Name,
// Email, Phone, Status) that try the field names seen in practice.
package crm
