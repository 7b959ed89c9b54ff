package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanExecute_OpenVerbsAllowAllRoles(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleStaff, RoleViewer} {
		assert.True(t, CanExecute(VerbHelp, role))
		assert.True(t, CanExecute(VerbOnHand, role))
	}
}

func TestCanExecute_MovementVerbsRequireStaffOrAbove(t *testing.T) {
	assert.True(t, CanExecute(VerbIn, RoleAdmin))
	assert.True(t, CanExecute(VerbIn, RoleStaff))
	assert.False(t, CanExecute(VerbIn, RoleViewer))
}

func TestCanExecute_AdminOnlyVerbs(t *testing.T) {
	for _, verb := range []Verb{VerbAdjust, VerbApprove, VerbReject, VerbSetThreshold} {
		assert.True(t, CanExecute(verb, RoleAdmin))
		assert.False(t, CanExecute(verb, RoleStaff))
		assert.False(t, CanExecute(verb, RoleViewer))
	}
}

func TestCanExecute_UnknownVerbDeniedToEveryone(t *testing.T) {
	assert.False(t, CanExecute(Verb("nonsense"), RoleAdmin))
}

func TestChatAllowlist_EmptyMeansUnrestricted(t *testing.T) {
	allowlist := NewChatAllowlist(nil)
	assert.True(t, allowlist.IsAllowed("any-chat"))
}

func TestChatAllowlist_RestrictsToConfiguredIDs(t *testing.T) {
	allowlist := NewChatAllowlist([]string{"chat-1", "chat-2"})
	assert.True(t, allowlist.IsAllowed("chat-1"))
	assert.False(t, allowlist.IsAllowed("chat-3"))
}

func TestValidateAccess_DeniesDisallowedChat(t *testing.T) {
	allowlist := NewChatAllowlist([]string{"chat-1"})
	ok, reason := ValidateAccess(allowlist, "chat-2", VerbHelp, RoleAdmin)
	assert.False(t, ok)
	assert.Contains(t, reason, "not authorized")
}

func TestValidateAccess_DeniesInsufficientRole(t *testing.T) {
	allowlist := NewChatAllowlist(nil)
	ok, reason := ValidateAccess(allowlist, "chat-1", VerbAdjust, RoleStaff)
	assert.False(t, ok)
	assert.Contains(t, reason, "role")
}

func TestValidateAccess_GrantsWhenBothChecksPass(t *testing.T) {
	allowlist := NewChatAllowlist([]string{"chat-1"})
	ok, reason := ValidateAccess(allowlist, "chat-1", VerbOut, RoleStaff)
	assert.True(t, ok)
	assert.Empty(t, reason)
}
