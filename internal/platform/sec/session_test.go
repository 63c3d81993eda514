// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gitpress/internal/platform/sec"
)

func newTestCodec(ttl time.Duration) *sec.SessionCodec {
	return sec.NewSessionCodec("test-secret-at-least-32-bytes-long!", "gitpress-test", ttl)
}

/*
TestSessionCodec_RoundTrip verifies that an encoded session decodes back to
the same payload, tokens included.
*/
func TestSessionCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(time.Hour)

	user := &sec.ActiveUser{
		Token:        "gho_access",
		RefreshToken: "ghr_refresh",
		Actor:        "octocat",
		Avatar:       "https://avatars.example/octocat.png",
		Email:        "octocat@example.com",
	}

	signed, err := codec.Encode(user)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	decoded, err := codec.Decode(signed)
	require.NoError(t, err)

	assert.Equal(t, user.Token, decoded.Token)
	assert.Equal(t, user.RefreshToken, decoded.RefreshToken)
	assert.Equal(t, user.Actor, decoded.Actor)
	assert.Equal(t, user.Avatar, decoded.Avatar)
	assert.Equal(t, user.Email, decoded.Email)
}

/*
TestSessionCodec_RejectsTampering verifies that a modified payload fails
signature verification.
*/
func TestSessionCodec_RejectsTampering(t *testing.T) {
	codec := newTestCodec(time.Hour)

	signed, err := codec.Encode(&sec.ActiveUser{Token: "gho_access", Actor: "octocat"})
	require.NoError(t, err)

	// Flip a character in the payload segment (header.payload.signature).
	parts := strings.Split(signed, ".")
	require.Len(t, parts, 3)

	payload := []byte(parts[1])
	payload[len(payload)/2] ^= 0x01
	parts[1] = string(payload)

	_, err = codec.Decode(strings.Join(parts, "."))
	assert.Error(t, err)
}

/*
TestSessionCodec_RejectsForeignSecret verifies that a token signed with a
different secret is refused.
*/
func TestSessionCodec_RejectsForeignSecret(t *testing.T) {
	codec := newTestCodec(time.Hour)
	foreign := sec.NewSessionCodec("a-completely-different-signing-key", "gitpress-test", time.Hour)

	signed, err := foreign.Encode(&sec.ActiveUser{Token: "gho_access", Actor: "octocat"})
	require.NoError(t, err)

	_, err = codec.Decode(signed)
	assert.Error(t, err)
}

/*
TestSessionCodec_RejectsExpired verifies that an expired session does not decode.
*/
func TestSessionCodec_RejectsExpired(t *testing.T) {
	codec := newTestCodec(-time.Minute)

	signed, err := codec.Encode(&sec.ActiveUser{Token: "gho_access", Actor: "octocat"})
	require.NoError(t, err)

	_, err = codec.Decode(signed)
	assert.Error(t, err)
}
