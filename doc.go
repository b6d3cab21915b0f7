// Package accounts implements the account backend for the snippet assistant:
// email/password signup, email verification, JWT session issuance, and
// account-owned snippet history.
//
// Verification lifecycle:
//   - Signup creates the User with email_verified = false and issues a
//     single-use verification token (24h TTL) inside one transaction. The
//     Notifier delivers the link after commit; a delivery failure rolls the
//     token back and the resend-verification flow is the recovery path.
//   - Redemption is a single atomic delete against the store, so a token can
//     be consumed at most once even under concurrent requests.
//   - MarkVerified is idempotent and never reverts.
//
// Sessions:
//   - Session tokens are stateless HS256 JWTs carrying the user id and a jti.
//     There is no server-side revocation; logout is an acknowledgement only.
//   - Expired and malformed tokens are distinct errors internally and are
//     logged as such, but both surface as unauthorized.
package accounts
