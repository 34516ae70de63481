// Package signature implements the OAuth 1.0 request signing rules of
// RFC 5849 section 3.4: the signature base string, the protocol
// percent-encoding, and the HMAC-SHA1 method.
//
// The server side uses a [Verifier] to check the oauth_signature of an
// inbound request against its normalized [Request] representation. The
// [Client] type produces Authorization headers for the same requests and
// backs the `oauthfilter sign` command and the tests.
package signature
