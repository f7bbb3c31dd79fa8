// Package models defines the value types exchanged between the client
// components and the REST API.
package models

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// User is the account profile returned together with the token on login.
type User struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	FullName    string   `json:"fullName"`
	Email       string   `json:"email"`
	Avatar      string   `json:"avatar,omitempty"`
	Bio         string   `json:"bio,omitempty"`
	SocialLinks []string `json:"socialLinks,omitempty"`
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	return u.Username
}

// Initial is the upper-cased first letter of DisplayName, used when the
// user has no avatar. Empty when both names are empty.
func (u User) Initial() string {
	r, size := utf8.DecodeRuneInString(u.DisplayName())
	if size == 0 || r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}
