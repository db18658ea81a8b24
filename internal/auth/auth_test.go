package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnedge/learnedge/internal/apperr"
	"github.com/learnedge/learnedge/internal/store/storetest"
)

func newService(t *testing.T) *Service {
	t.Helper()
	st := storetest.Open(t)
	return NewService(st.Users(), "test-secret", time.Hour, nil)
}

func TestSignup(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	sess, err := s.Signup(ctx, "  Ada@Example.com ", "hunter22", "Ada")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if sess.User.Email != "ada@example.com" {
		t.Errorf("email not normalized: %q", sess.User.Email)
	}
	if sess.User.Password != "" {
		t.Error("password hash leaked in session")
	}

	stored, err := s.users.GetByEmail(ctx, nil, "ada@example.com")
	if err != nil || stored == nil {
		t.Fatalf("stored user: %v %v", stored, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("hunter22")) != nil {
		t.Error("stored password is not a bcrypt hash of the input")
	}

	claims, err := s.Verify(sess.AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Email != "ada@example.com" || claims.Subject != stored.ID.String() {
		t.Errorf("claims = %+v", claims)
	}
}

func TestSignup_DuplicateEmailConflicts(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	if _, err := s.Signup(ctx, "a@b.c", "pw", ""); err != nil {
		t.Fatal(err)
	}
	_, err := s.Signup(ctx, "A@B.C", "other", "")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	if _, err := s.Signup(ctx, "a@b.c", "correct", ""); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{"valid", "a@b.c", "correct", false},
		{"case-insensitive email", "A@B.C", "correct", false},
		{"wrong password", "a@b.c", "wrong", true},
		{"unknown email", "x@y.z", "correct", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := s.Login(ctx, tt.email, tt.password)
			if tt.wantErr {
				if !apperr.Is(err, apperr.KindUnauthorized) {
					t.Fatalf("expected unauthorized, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if sess.User.Password != "" || sess.AccessToken == "" {
				t.Fatalf("session = %+v", sess)
			}
		})
	}
}

func TestLogin_GuestCannotLogIn(t *testing.T) {
	st := storetest.Open(t)
	s := NewService(st.Users(), "k", time.Hour, nil)
	guest, err := st.Users().EnsureGuest(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Login(context.Background(), guest.Email, ""); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestVerify_Rejects(t *testing.T) {
	s := newService(t)
	sess, err := s.Signup(context.Background(), "a@b.c", "pw", "")
	if err != nil {
		t.Fatal(err)
	}

	other := NewService(s.users, "different-secret", time.Hour, nil)
	expired := NewService(s.users, "test-secret", time.Hour, nil)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	oldToken, err := expired.Issue(sess.User)
	if err != nil {
		t.Fatal(err)
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": sess.User.ID.String()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		svc     *Service
		token   string
		wantMsg string
	}{
		{"garbage", s, "not-a-token", "Invalid token"},
		{"wrong secret", other, sess.AccessToken, "Invalid token"},
		{"expired", s, oldToken, "Token expired"},
		{"alg none", s, none, "Invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Verify(tt.token)
			if !apperr.Is(err, apperr.KindUnauthorized) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}
