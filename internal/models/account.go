package models

// Account is a user as the development backend stores it.
type Account struct {
	User
	PasswordHash string
}
