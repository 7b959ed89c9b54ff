// Package authz implements the role-based permission table and chat
// allowlist check (§12 supplemented features), grounded on the original
// auth service's get_user_role/can_execute_command/is_chat_allowed design.
package authz

import "strings"

// Role is one of the three fixed access levels.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleStaff  Role = "STAFF"
	RoleViewer Role = "VIEWER"
)

// Verb is a recognized inbound command verb (§6).
type Verb string

const (
	VerbHelp         Verb = "help"
	VerbWhoAmI       Verb = "whoami"
	VerbFind         Verb = "find"
	VerbStock        Verb = "stock"
	VerbOnHand       Verb = "onhand"
	VerbIn           Verb = "in"
	VerbOut          Verb = "out"
	VerbAdjust       Verb = "adjust"
	VerbApprove      Verb = "approve"
	VerbReject       Verb = "reject"
	VerbSetThreshold Verb = "setthreshold"
	VerbAudit        Verb = "audit"
	VerbExport       Verb = "export"
	VerbInventory    Verb = "inventory"
	VerbPreview      Verb = "preview"
)

// permissions is the fixed per-verb role table. A verb absent from this map
// is denied to everyone (fail closed).
var permissions = map[Verb]map[Role]bool{
	VerbHelp:      {RoleAdmin: true, RoleStaff: true, RoleViewer: true},
	VerbWhoAmI:    {RoleAdmin: true, RoleStaff: true, RoleViewer: true},
	VerbFind:      {RoleAdmin: true, RoleStaff: true, RoleViewer: true},
	VerbStock:     {RoleAdmin: true, RoleStaff: true, RoleViewer: true},
	VerbOnHand:    {RoleAdmin: true, RoleStaff: true, RoleViewer: true},
	VerbPreview:   {RoleAdmin: true, RoleStaff: true, RoleViewer: true},
	VerbIn:        {RoleAdmin: true, RoleStaff: true},
	VerbOut:       {RoleAdmin: true, RoleStaff: true},
	VerbInventory: {RoleAdmin: true, RoleStaff: true},
	VerbAdjust:       {RoleAdmin: true},
	VerbApprove:      {RoleAdmin: true},
	VerbReject:       {RoleAdmin: true},
	VerbSetThreshold: {RoleAdmin: true},
	VerbAudit:  {RoleAdmin: true, RoleStaff: true},
	VerbExport: {RoleAdmin: true, RoleStaff: true},
}

// CanExecute reports whether role may execute verb, per the fixed
// permission table.
func CanExecute(verb Verb, role Role) bool {
	allowed, ok := permissions[verb]
	if !ok {
		return false
	}
	return allowed[role]
}

// IsAdmin reports whether role is ADMIN.
func IsAdmin(role Role) bool {
	return role == RoleAdmin
}

// IsStaffOrAbove reports whether role is STAFF or ADMIN.
func IsStaffOrAbove(role Role) bool {
	return role == RoleAdmin || role == RoleStaff
}

// ChatAllowlist checks whether a chat id is permitted to issue commands. An
// empty allowlist means unrestricted (every chat is allowed), matching the
// default of ChatConfig.AllowedChatIDs being empty in development.
type ChatAllowlist struct {
	allowed map[string]bool
}

// NewChatAllowlist builds an allowlist from configured chat ids.
func NewChatAllowlist(chatIDs []string) *ChatAllowlist {
	allowed := make(map[string]bool, len(chatIDs))
	for _, id := range chatIDs {
		allowed[strings.TrimSpace(id)] = true
	}
	return &ChatAllowlist{allowed: allowed}
}

// IsAllowed reports whether chatID may issue commands.
func (a *ChatAllowlist) IsAllowed(chatID string) bool {
	if len(a.allowed) == 0 {
		return true
	}
	return a.allowed[strings.TrimSpace(chatID)]
}

// ValidateAccess combines the chat allowlist and per-verb role check, the
// way the original auth service's validate_user_access did: it returns
// whether access is granted and, if not, a human-readable reason.
func ValidateAccess(allowlist *ChatAllowlist, chatID string, verb Verb, role Role) (bool, string) {
	if allowlist != nil && !allowlist.IsAllowed(chatID) {
		return false, "this chat is not authorized to use the bot"
	}
	if !CanExecute(verb, role) {
		return false, "your role does not permit this command"
	}
	return true, ""
}
