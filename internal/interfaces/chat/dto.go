// Package chat is the external interface named in §6: a verb-first chat
// command surface delivered over a single provider webhook, with opaque
// callback tokens for button-driven follow-ups (approve/reject a batch,
// resolve a duplicate, page through a stock search).
package chat

import (
	"strconv"
	"strings"

	"github.com/sitestock/inventorybot/internal/infrastructure/authz"
)

// InboundEvent is the transport-agnostic shape a webhook payload is decoded
// into before dispatch. Exactly one of Text / CallbackToken is populated.
type InboundEvent struct {
	ChatID   string `json:"chat_id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`

	// Text is the raw message body for a typed command.
	Text string `json:"text,omitempty"`

	// CallbackToken is the opaque token named in §6 for a button press.
	CallbackToken string `json:"callback_token,omitempty"`
}

// Button is one {label, callback_token} entry of a button row in §6's
// outbound shape; a row is a []Button.
type Button struct {
	Label         string `json:"label"`
	CallbackToken string `json:"callback_token"`
}

// Response is the transport-agnostic outbound shape: a message body plus
// optional button rows.
type Response struct {
	Message string     `json:"message"`
	Buttons [][]Button `json:"buttons,omitempty"`
}

func textResponse(message string) Response {
	return Response{Message: message}
}

// Command is a parsed inbound verb plus its remaining payload, split off
// the raw text by ParseCommand.
type Command struct {
	Verb    authz.Verb
	Payload string
}

// verbAliases maps every token recognized on the wire (§6's verb table,
// case-insensitive) to its canonical authz.Verb. For "inventory validate"
// and "preview in"/"preview out" only the first word is looked up here; the
// second word stays in the payload and is read by IsValidateSubcommand and
// PreviewDirection.
var verbAliases = map[string]authz.Verb{
	"help":         authz.VerbHelp,
	"whoami":       authz.VerbWhoAmI,
	"find":         authz.VerbFind,
	"stock":        authz.VerbStock,
	"onhand":       authz.VerbOnHand,
	"in":           authz.VerbIn,
	"out":          authz.VerbOut,
	"adjust":       authz.VerbAdjust,
	"approve":      authz.VerbApprove,
	"reject":       authz.VerbReject,
	"setthreshold": authz.VerbSetThreshold,
	"audit":        authz.VerbAudit,
	"export":       authz.VerbExport,
	"inventory":    authz.VerbInventory,
	"preview":      authz.VerbPreview,
}

// ParseCommand splits raw inbound text into a verb and the remaining
// payload, per §6's "verb-first text" inbound surface. Returns false if the
// first token is not a recognized verb.
func ParseCommand(text string) (Command, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Command{}, false
	}

	head, rest := splitFirstToken(trimmed)
	verb, ok := verbAliases[strings.ToLower(head)]
	if !ok {
		return Command{}, false
	}

	return Command{Verb: verb, Payload: strings.TrimSpace(rest)}, true
}

func splitFirstToken(s string) (head, rest string) {
	idx := strings.IndexAny(s, " \n\t")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}

// IsValidateSubcommand reports whether an `inventory` command's payload
// begins with the "validate" modifier (§6: "inventory validate" parses and
// reports without writing).
func IsValidateSubcommand(payload string) (body string, validateOnly bool) {
	const prefix = "validate"
	trimmed := strings.TrimLeft(payload, " \t")
	lower := strings.ToLower(trimmed)
	if lower == prefix {
		return "", true
	}
	if strings.HasPrefix(lower, prefix+"\n") || strings.HasPrefix(lower, prefix+" ") {
		return strings.TrimSpace(trimmed[len(prefix):]), true
	}
	return payload, false
}

// PreviewDirection reports which movement a `preview` command names
// ("preview in" / "preview out") and the remaining batch body.
func PreviewDirection(payload string) (direction string, body string, ok bool) {
	head, rest := splitFirstToken(strings.TrimSpace(payload))
	lower := strings.ToLower(head)
	if lower != "in" && lower != "out" {
		return "", "", false
	}
	return lower, strings.TrimSpace(rest), true
}

// Callback token prefixes and fixed tokens, per §6.
const (
	callbackApproveBatchPrefix    = "approvebatch:"
	callbackRejectBatchPrefix     = "rejectbatch:"
	callbackConfirmIndividualPre  = "confirm_individual_"
	callbackCancelIndividualPre   = "cancel_individual_"
	callbackConfirmAllDuplicates  = "confirm_all_duplicates"
	callbackCancelAllDuplicates   = "cancel_all_duplicates"
	callbackShowAllDuplicates     = "show_all_duplicates"
	callbackStockItemPrefix       = "stock_item_"
	callbackStockPagePrevPrefix   = "stock_page_prev_"
	callbackStockPageNextPrefix   = "stock_page_next_"
)

// ParsedCallback is the decoded form of one of the opaque tokens named in
// §6. Kind identifies which variant matched.
type ParsedCallback struct {
	Kind    CallbackKind
	BatchID string
	Index   int
	Page    int
	QueryHash string
	Slug    string
}

// CallbackKind enumerates the recognized callback token shapes.
type CallbackKind int

const (
	CallbackUnknown CallbackKind = iota
	CallbackApproveBatch
	CallbackRejectBatch
	CallbackConfirmIndividual
	CallbackCancelIndividual
	CallbackConfirmAllDuplicates
	CallbackCancelAllDuplicates
	CallbackShowAllDuplicates
	CallbackStockItem
	CallbackStockPagePrev
	CallbackStockPageNext
)

// ParseCallbackToken decodes a raw callback token into its typed form.
func ParseCallbackToken(token string) ParsedCallback {
	switch {
	case strings.HasPrefix(token, callbackApproveBatchPrefix):
		return ParsedCallback{Kind: CallbackApproveBatch, BatchID: strings.TrimPrefix(token, callbackApproveBatchPrefix)}
	case strings.HasPrefix(token, callbackRejectBatchPrefix):
		return ParsedCallback{Kind: CallbackRejectBatch, BatchID: strings.TrimPrefix(token, callbackRejectBatchPrefix)}
	case strings.HasPrefix(token, callbackConfirmIndividualPre):
		idx, _ := strconv.Atoi(strings.TrimPrefix(token, callbackConfirmIndividualPre))
		return ParsedCallback{Kind: CallbackConfirmIndividual, Index: idx}
	case strings.HasPrefix(token, callbackCancelIndividualPre):
		idx, _ := strconv.Atoi(strings.TrimPrefix(token, callbackCancelIndividualPre))
		return ParsedCallback{Kind: CallbackCancelIndividual, Index: idx}
	case token == callbackConfirmAllDuplicates:
		return ParsedCallback{Kind: CallbackConfirmAllDuplicates}
	case token == callbackCancelAllDuplicates:
		return ParsedCallback{Kind: CallbackCancelAllDuplicates}
	case token == callbackShowAllDuplicates:
		return ParsedCallback{Kind: CallbackShowAllDuplicates}
	case strings.HasPrefix(token, callbackStockItemPrefix):
		return parseStockItemToken(strings.TrimPrefix(token, callbackStockItemPrefix))
	case strings.HasPrefix(token, callbackStockPagePrevPrefix):
		return parseStockPageToken(strings.TrimPrefix(token, callbackStockPagePrevPrefix), CallbackStockPagePrev)
	case strings.HasPrefix(token, callbackStockPageNextPrefix):
		return parseStockPageToken(strings.TrimPrefix(token, callbackStockPageNextPrefix), CallbackStockPageNext)
	default:
		return ParsedCallback{Kind: CallbackUnknown}
	}
}

// parseStockItemToken decodes "stock_item_<i>_<slug>" (prefix already
// stripped).
func parseStockItemToken(rest string) ParsedCallback {
	parts := strings.SplitN(rest, "_", 2)
	idx, _ := strconv.Atoi(parts[0])
	slug := ""
	if len(parts) > 1 {
		slug = parts[1]
	}
	return ParsedCallback{Kind: CallbackStockItem, Index: idx, Slug: slug}
}

// parseStockPageToken decodes "<qhash>_<page>" (prefix already stripped).
func parseStockPageToken(rest string, kind CallbackKind) ParsedCallback {
	idx := strings.LastIndex(rest, "_")
	if idx < 0 {
		return ParsedCallback{Kind: kind, QueryHash: rest}
	}
	page, _ := strconv.Atoi(rest[idx+1:])
	return ParsedCallback{Kind: kind, QueryHash: rest[:idx], Page: page}
}

// ApproveBatchToken builds the callback token for an approve-batch button.
func ApproveBatchToken(batchID string) string { return callbackApproveBatchPrefix + batchID }

// RejectBatchToken builds the callback token for a reject-batch button.
func RejectBatchToken(batchID string) string { return callbackRejectBatchPrefix + batchID }

// ConfirmIndividualToken builds the callback token for confirming one
// duplicate candidate.
func ConfirmIndividualToken(index int) string {
	return callbackConfirmIndividualPre + strconv.Itoa(index)
}

// CancelIndividualToken builds the callback token for cancelling one
// duplicate candidate.
func CancelIndividualToken(index int) string {
	return callbackCancelIndividualPre + strconv.Itoa(index)
}

// StockItemToken builds the callback token for selecting one stock-search
// result.
func StockItemToken(index int, slug string) string {
	return callbackStockItemPrefix + strconv.Itoa(index) + "_" + slug
}

// StockPageToken builds the callback token for paging a stock search.
func StockPageToken(direction, queryHash string, page int) string {
	prefix := callbackStockPagePrevPrefix
	if direction == "next" {
		prefix = callbackStockPageNextPrefix
	}
	return prefix + queryHash + "_" + strconv.Itoa(page)
}
