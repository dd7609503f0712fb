// Package session houses the session store grouping a user's pipeline runs.
// The Session struct lives in the core package to centralize domain
// contracts; this package keeps only the storage implementation, so the
// wiring layer alone decides which backend to instantiate.
package session
