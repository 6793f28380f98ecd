// Package common contains shared constants and sentinel errors used across
// server components.
package common

// EmailDomain is the only email domain accepted at registration.
const EmailDomain = "@supnum.mr"

// MinPasswordLength is the minimum accepted password length for both
// registration and password reset.
const MinPasswordLength = 6

// RoleStudent is the role assigned to every newly registered account.
const RoleStudent = "student"
