package user

import (
	"testing"
	"time"

	"github.com/taqyimhq/taqyim/core"
)

func TestMakeVerifyToken(t *testing.T) {
	now := time.Now()
	isActive := true
	usr := User{
		ID:        "5f0c2a1e-0000-4000-8000-0000000000aa",
		Name:      "T",
		Email:     "t@test.test",
		Role:      RoleEmployee,
		IsActive:  &isActive,
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	_ = usr.SetPassword("pwd")

	validToken, err := MakeToken(usr)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}

	// generate an expired token
	dayLate := core.Conf.PasswordResetTimeoutDelta + (24 * time.Hour)
	NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := MakeToken(usr)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}
	NowFunc = time.Now

	// a token no longer matches once the user state it signed changes
	staleUsr := usr
	_ = staleUsr.SetPassword("new-pwd")

	tests := []struct {
		name    string
		usr     User
		token   string
		wantErr error
	}{
		{name: "valid", usr: usr, token: validToken},
		{name: "empty", usr: usr, token: "", wantErr: errInvalidToken},
		{name: "garbage", usr: usr, token: "lol", wantErr: errInvalidToken},
		{name: "bad timestamp segment", usr: usr, token: "@@@@-whatever", wantErr: errInvalidToken},
		{name: "expired", usr: usr, token: expiredToken, wantErr: errTokenExpired},
		{name: "password changed", usr: staleUsr, token: validToken, wantErr: errInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := verifyToken(tt.usr, tt.token); err != tt.wantErr {
				t.Errorf("verifyToken() error = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	usr := User{ID: "5f0c2a1e-0000-4000-8000-0000000000ab"}
	uid := EncodeUID(usr)
	id, err := decodeUID(uid)
	if err != nil {
		t.Fatalf("decodeUID(): %v", err)
	}
	if id != usr.ID {
		t.Errorf("decodeUID() = %q; want %q", id, usr.ID)
	}
	if _, err = decodeUID("???"); err == nil {
		t.Error("decodeUID() accepted invalid input")
	}
}
