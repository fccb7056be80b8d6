package util

import (
	"testing"
	"time"

	"pmp_prep_backend/internal/model"
)

func testUser() *model.User {
	u := &model.User{
		Name:  "Dana",
		Email: "dana@example.com",
		Role:  model.Student,
	}
	u.ID = 9
	return u
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(testUser(), "unit-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT(token, "unit-test-secret")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != 9 || claims.Email != "dana@example.com" || claims.Role != model.Student {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseJWTRejectsBadInput(t *testing.T) {
	good, err := GenerateJWT(testUser(), "unit-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	expired, err := GenerateJWT(testUser(), "unit-test-secret", -time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	cases := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", good, "another-secret"},
		{"expired", expired, "unit-test-secret"},
		{"garbage", "not.a.token", "unit-test-secret"},
		{"empty", "", "unit-test-secret"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := ParseJWT(tc.token, tc.secret)
			// (nil, nil) would let an unauthenticated request through
			if err == nil {
				t.Fatal("ParseJWT returned no error")
			}
			if claims != nil {
				t.Fatalf("claims returned alongside error: %+v", claims)
			}
		})
	}
}
