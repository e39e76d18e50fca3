package entity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_BeforeSave_HashesPassword(t *testing.T) {
	user := &User{UserName: "alice", Email: "alice@example.com", Password: "secret123"}

	require.NoError(t, user.BeforeSave(nil))

	assert.True(t, strings.HasPrefix(user.Password, "$2"))
	assert.True(t, user.CheckPassword("secret123"))
	assert.False(t, user.CheckPassword("wrong"))
}

func TestUser_BeforeSave_DoesNotDoubleHash(t *testing.T) {
	user := &User{UserName: "alice", Email: "alice@example.com", Password: "secret123"}
	require.NoError(t, user.BeforeSave(nil))
	firstHash := user.Password

	require.NoError(t, user.BeforeSave(nil))

	assert.Equal(t, firstHash, user.Password)
	assert.True(t, user.CheckPassword("secret123"))
}

func TestUser_BeforeSave_CapitalizesUserName(t *testing.T) {
	user := &User{UserName: "  alice  ", Email: "alice@example.com"}

	require.NoError(t, user.BeforeSave(nil))

	assert.Equal(t, "Alice", user.UserName)
}

func TestUser_CheckPassword_EmptyHash(t *testing.T) {
	user := &User{Email: "fed@example.com", AuthProvider: ProviderGoogle}

	assert.False(t, user.CheckPassword(""))
	assert.False(t, user.CheckPassword("anything"))
}

func TestUser_HasLiveResetToken(t *testing.T) {
	now := time.Now()

	user := &User{}
	assert.False(t, user.HasLiveResetToken(now))

	future := now.Add(time.Minute)
	user = &User{ResetPasswordToken: "tok", ResetPasswordExpires: &future}
	assert.True(t, user.HasLiveResetToken(now))

	past := now.Add(-time.Minute)
	user = &User{ResetPasswordToken: "tok", ResetPasswordExpires: &past}
	assert.False(t, user.HasLiveResetToken(now))
}

func TestVerificationCode_IsExpired(t *testing.T) {
	ttl := 5 * time.Minute
	created := time.Now()
	code := &VerificationCode{Code: "123456", CreatedAt: created}

	assert.False(t, code.IsExpired(created.Add(4*time.Minute+59*time.Second), ttl))
	assert.True(t, code.IsExpired(created.Add(5*time.Minute+1*time.Second), ttl))
}
