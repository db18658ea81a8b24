package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/learnedge/learnedge/internal/store"
)

func findUser(ctx context.Context, s *store.Store, email string) (*store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("--email is required")
	}
	u, err := s.Users().GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("no user with email %q", email)
	}
	return u, nil
}

// redactDSN hides the password of a database URL.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
