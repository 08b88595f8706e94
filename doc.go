// Package authentic provides a pluggable account layer (registration,
// email activation, password recovery, JWT sessions) for Fiber
// applications backed by Bun.
//
// Account lifecycle:
//   - Registration goes through RegisterAccountHandler, which hashes
//     credentials, validates them against a configurable
//     PasswordPolicy, and either activates the account immediately or
//     parks it as inactive until the emailed activation link is used.
//   - Activation, resend, recovery, and password change are separate
//     command handlers. Each consumes a message struct and reports
//     validation problems as field errors so HTTP layers can render
//     them per input.
//   - AccountStateMachine centralizes the pending/active transitions,
//     persistence, and hooks for applications that need to observe
//     status changes.
//
// Tokens:
//   - TokenService signs HS256 access/refresh pairs and enforces the
//     typ claim, so a refresh token can never pass an access check.
//   - StateTokenGenerator mints the single-use links embedded in
//     activation and recovery emails. The token fingerprint covers the
//     password hash and last login, so changing either invalidates
//     every previously issued link without server-side storage.
//
// HTTP:
//   - AccountController wires the command handlers, Auther, and the
//     jwtware middleware into a JSON route group via
//     RegisterAccountRoutes. Every surface is optional; applications
//     can mount the routes or call the handlers directly.
package authentic
