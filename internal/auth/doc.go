// Package auth provides account registration, login and token
// authentication for NB Core.
//
// Accounts are identified by email, which doubles as the username. Each
// account owns at most one opaque API token: a random hex key stored in
// auth_tokens and presented by clients as "Authorization: Token <key>".
// Tokens are created on registration or first login, reused afterwards, and
// never expire.
//
// Passwords are hashed with Argon2id and stored in PHC string format;
// verification uses constant-time comparison. Login spends the same hashing
// work whether or not the email exists.
//
// Persistence, hashing and event publishing sit behind the UserRepository,
// TokenRepository, PasswordHasher and EventPublisher interfaces.
package auth
