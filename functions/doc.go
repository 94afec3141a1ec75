// Package functions holds the HRive HTTP functions: login, test-user
// seeding, token refresh, logout, and session lookup.
//
// Every function answers with a JSON envelope, either {"data": ...} or
// {"error": "..."}, and handles CORS preflight itself so it can be deployed
// behind any router or as a standalone serverless handler.
package functions
