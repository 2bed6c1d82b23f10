package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_RecordErrorAndLastErrorFor(t *testing.T) {
	sess := NewSession("s1")

	sess.RecordError("email", "first reason")
	sess.RecordError("email", "second reason")
	sess.RecordError("name", "other field")

	assert.Equal(t, 2, sess.Attempts["email"])
	assert.Equal(t, 1, sess.Attempts["name"])

	reason, ok := sess.LastErrorFor("email")
	require.True(t, ok)
	assert.Equal(t, "second reason", reason)

	_, ok = sess.LastErrorFor("mobile")
	assert.False(t, ok)
}

func TestSession_Terminal(t *testing.T) {
	sess := NewSession("s1")
	assert.False(t, sess.Terminal())

	sess.Status = StatusCompleted
	assert.True(t, sess.Terminal())

	sess.Status = StatusFailed
	assert.True(t, sess.Terminal())
}

func TestSession_CloneIsDeep(t *testing.T) {
	sess := NewSession("s1")
	sess.Profile["name"] = "Ada"
	sess.Attempts["email"] = 1
	sess.Append(RoleUser, "hello")
	sess.RecordError("email", "bad")

	cp := sess.Clone()
	cp.Profile["name"] = "Grace"
	cp.Attempts["email"] = 9
	cp.Append(RoleAssistant, "hi")
	cp.Errors[0].Reason = "changed"

	assert.Equal(t, "Ada", sess.Profile["name"])
	assert.Equal(t, 2, sess.Attempts["email"])
	assert.Len(t, sess.Transcript, 1)
	assert.Equal(t, "bad", sess.Errors[0].Reason)
}
