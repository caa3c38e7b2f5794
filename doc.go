// Package signup implements an OTP-gated registration and sign-in flow:
// an account is created unverified with a hashed password and a pending
// one-time code, the code is delivered by email, confirming it activates
// the account, and login on a verified account mints a signed JWT carrying
// the subject and role.
//
// Account lifecycle:
//
//	Register  -> unverified account + pending OTP, code delivered by Notifier
//	VerifyOTP -> consumes the code, flips the account to verified (one shot)
//	Login     -> password check on a verified account, returns a bearer token
//
// Known gaps, kept deliberately: there is no resend-OTP path, no rate
// limiting or lockout, and no token revocation. Tokens are stateless;
// logout is a client-side discard.
package signup
