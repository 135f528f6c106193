// Package password wraps bcrypt hashing for admin credentials.
//
// Passwords are hashed before they ever reach a pending registration record,
// so a leaked pending store never exposes a clear-text password.
package password
