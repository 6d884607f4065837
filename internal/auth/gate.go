package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired session token")
)

type User struct {
	Username  string
	Anonymous bool
}

// Gate decides who may use the prediction flow.
type Gate interface {
	SignIn(ctx context.Context, username, password string) (string, User, error)

	Authenticate(ctx context.Context, token string) (User, error)

	SignOut(ctx context.Context, token string) error
}

// ParseUsers reads credentials in the form "alice:secret,bob:hunter2".
func ParseUsers(list string) (map[string]string, error) {
	users := make(map[string]string)
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		username, password, ok := strings.Cut(entry, ":")
		if !ok || username == "" || password == "" {
			return nil, fmt.Errorf("invalid user entry %q, expected username:password", entry)
		}
		users[username] = password
	}
	return users, nil
}
