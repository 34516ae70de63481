package auth

import "context"

// Resolver turns an extracted candidate into a Result. A nil authenticator
// disables its scheme: candidates of that scheme are declined.
type Resolver struct {
	Signed SignedAuthenticator
	Bearer TokenAuthenticator
}

// Scheme returns the metrics label for c.
func Scheme(c Candidate) string {
	switch c.(type) {
	case OAuth1Signed:
		return "oauth1"
	case OAuth2Token:
		return "oauth2"
	}
	return "none"
}

// Resolve verifies c. The Result reports the decision; the error is non-nil
// only when a collaborator failed or ctx was cancelled, in which case the
// Result must be ignored.
func (r *Resolver) Resolve(ctx context.Context, c Candidate) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	switch c := c.(type) {
	case None:
		reason := c.Reason
		if reason == nil {
			reason = ErrNoCredential
		}
		return Declined(reason), nil
	case OAuth1Signed:
		if r.Signed == nil {
			return Declined(ErrNoCredential), nil
		}
		return r.Signed.AuthenticateSigned(ctx, c)
	case OAuth2Token:
		if r.Bearer == nil {
			return Declined(ErrNoCredential), nil
		}
		return r.Bearer.AuthenticateToken(ctx, c)
	}
	return Declined(ErrNoCredential), nil
}
