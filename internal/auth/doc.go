// Package auth keeps the admin session: bearer tokens and the persisted
// theme preference.
//
// Tokens live in the store under "access" and "refresh". Logout removes them
// together with every cached analytics period; "theme" survives logout.
package auth
