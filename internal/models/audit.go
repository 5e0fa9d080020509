package models

import "time"

// Audit resource types.
const (
	AuditResourceUser  = "user"
	AuditResourcePhoto = "photo"
)

// AuditEntry is one admin action or photo deletion. Username is filled from the
// users table when listing and is empty if the actor was removed.
type AuditEntry struct {
	ID           int       `json:"id"`
	UserID       int       `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   int       `json:"resource_id"`
	Details      string    `json:"details,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
