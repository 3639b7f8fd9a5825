package lrkservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dekarrin/lrk/internal/lrkservice/dao"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is returned by login when the username does not exist or
// the password does not match.
var ErrBadCredentials = errors.New("username or password is incorrect")

// hashPassword bcrypt-hashes a plaintext password for storage.
func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// login verifies username/password against the store and returns the user
// on success.
func (svc *Service) login(ctx context.Context, username, password string) (dao.User, error) {
	user, err := svc.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, ErrBadCredentials
		}
		return dao.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return dao.User{}, ErrBadCredentials
	}

	return user, nil
}

// signKeyFor derives the per-user HS512 signing key: the server secret
// salted with the user's password hash and last-logout timestamp, so that
// logging out (or changing the password) invalidates every outstanding
// token for that user without a revocation list.
func signKeyFor(secret []byte, user dao.User) []byte {
	var key []byte
	key = append(key, secret...)
	key = append(key, []byte(user.PasswordHash)...)
	key = append(key, []byte(fmt.Sprintf("%d", user.LastLogoutTime.Unix()))...)
	return key
}

// Logout bumps user's last-logout timestamp, which changes the HS512 signing
// key signKeyFor derives and so invalidates every JWT issued before this
// call, without needing a revocation list.
func (svc *Service) Logout(ctx context.Context, user dao.User) error {
	user.LastLogoutTime = time.Now()
	_, err := svc.store.Users().Update(ctx, user.ID, user)
	return err
}

const jwtIssuer = "lrkserver"

func (svc *Service) generateJWT(user dao.User) (string, error) {
	claims := &jwt.MapClaims{
		"iss": jwtIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
		"sub": user.ID.String(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return tok.SignedString(signKeyFor(svc.secret, user))
}

func (svc *Service) validateJWT(ctx context.Context, tok string) (dao.User, error) {
	var user dao.User

	_, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		subj, err := t.Claims.GetSubject()
		if err != nil {
			return nil, fmt.Errorf("cannot get subject: %w", err)
		}

		id, err := uuid.Parse(subj)
		if err != nil {
			return nil, fmt.Errorf("cannot parse subject UUID: %w", err)
		}

		user, err = svc.store.Users().GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("subject does not exist")
		}

		return signKeyFor(svc.secret, user), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer(jwtIssuer), jwt.WithLeeway(time.Minute))

	if err != nil {
		return dao.User{}, err
	}
	return user, nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func bearerToken(req *http.Request) (string, error) {
	authHeader := strings.TrimSpace(req.Header.Get("Authorization"))
	if authHeader == "" {
		return "", fmt.Errorf("no authorization header present")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(strings.TrimSpace(parts[0])) != "bearer" {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	return strings.TrimSpace(parts[1]), nil
}
