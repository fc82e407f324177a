package models

// User is a registered account in the users collection. The password
// field holds the one-way digest, never the plaintext.
type User struct {
	Login    string `json:"login"           bson:"login"`
	Password string `json:"-"               bson:"password"`
}

// Credentials is the login/password pair sent by clients.
type Credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// RegisterRequest is the JSON body for POST /register.
type RegisterRequest struct {
	Credentials Credentials `json:"credentials"`
}
