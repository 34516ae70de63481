// Package auth authenticates inbound HTTP requests that carry OAuth 1.0(a)
// signed credentials or OAuth 2.0 bearer-style tokens.
//
// Authentication is a three-stage pipeline. Extract scans the request for a
// single candidate credential, Resolver verifies it and produces a
// three-outcome vote (Yes, No or Abstain) together with the resolved
// Identity, and Filter publishes that identity into the request context.
//
// Filter never rejects a request for lack of credentials. Downstream
// handlers read the identity through the context accessors and decide
// themselves, optionally with the Require middleware. Only a failure of a
// collaborator (storage or signing) stops the request, because the
// credential could not be evaluated at all.
package auth
