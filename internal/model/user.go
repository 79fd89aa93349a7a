package model

import "time"

// User represents a box-office staff account as stored in the `users`
// table.  Accounts are provisioned out of band; this service only
// authenticates them and attributes ticket operations to them.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address used for login.
//  Name         – display name shown on audit trails.
//  PasswordHash – bcrypt hashed password.
//  Role         – admin | agent | usher.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    `json:"id"`         // users.id
    Email        string    `json:"email"`      // users.email
    Name         string    `json:"name"`       // users.name
    PasswordHash string    `json:"-"`          // users.password_hash, never serialized
    Role         string    `json:"role"`       // users.role
    CreatedAt    time.Time `json:"created_at"` // users.created_at
}
