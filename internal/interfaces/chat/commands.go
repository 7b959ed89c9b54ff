package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitestock/inventorybot/internal/application/inventory"
	domaininv "github.com/sitestock/inventorybot/internal/domain/inventory"
	"github.com/sitestock/inventorybot/internal/domain/shared"
	"github.com/sitestock/inventorybot/internal/infrastructure/authz"
	"github.com/sitestock/inventorybot/internal/infrastructure/cache"
	"github.com/sitestock/inventorybot/internal/infrastructure/logger"
)

const stockSearchPageSize = 5

// Handler wires the application-layer pipeline (parser, duplicate engine,
// batch processor, approval controller, stock-take service) to the
// verb-first chat surface (§6), resolving role/allowlist access and
// idempotency before any command runs.
type Handler struct {
	parser      *inventory.CommandParser
	duplicates  *inventory.DuplicateEngine
	catalogue   *cache.CatalogueCache
	items       domaininv.ItemRepository
	movements   domaininv.MovementRepository
	batches     *inventory.BatchProcessor
	approvals   *inventory.ApprovalController
	stocktakes  *inventory.StocktakeService
	idempotency shared.IdempotencyStore
	allowlist   *authz.ChatAllowlist
	roles       authz.RoleResolver

	idempotencyTTL time.Duration
	logger         *zap.Logger

	// queryCache recovers the original search text from a stock_page_*
	// token's <qhash>, since the token itself only carries the hash
	// (§6's callback tokens are opaque and length-bounded).
	queryCache sync.Map
}

// NewHandler constructs the chat command dispatcher.
func NewHandler(
	parser *inventory.CommandParser,
	duplicates *inventory.DuplicateEngine,
	catalogue *cache.CatalogueCache,
	items domaininv.ItemRepository,
	movements domaininv.MovementRepository,
	batches *inventory.BatchProcessor,
	approvals *inventory.ApprovalController,
	stocktakes *inventory.StocktakeService,
	idempotency shared.IdempotencyStore,
	allowlist *authz.ChatAllowlist,
	roles authz.RoleResolver,
	idempotencyTTL time.Duration,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		parser: parser, duplicates: duplicates, catalogue: catalogue,
		items: items, movements: movements, batches: batches,
		approvals: approvals, stocktakes: stocktakes,
		idempotency: idempotency, allowlist: allowlist, roles: roles,
		idempotencyTTL: idempotencyTTL, logger: logger,
	}
}

// Handle dispatches one inbound event (either a typed command or a callback
// press) and returns the response to send back.
func (h *Handler) Handle(ctx context.Context, event InboundEvent) Response {
	ctx = h.enrichContext(ctx, event)
	if event.CallbackToken != "" {
		return h.handleCallback(ctx, event)
	}
	return h.handleCommand(ctx, event)
}

// enrichContext attaches chat_id/user_id to ctx via the logger package so
// every downstream log line — in this package and in the application-layer
// components it calls into — carries them automatically, alongside
// request_id (attached by the webhook handler) and trace_id.
func (h *Handler) enrichContext(ctx context.Context, event InboundEvent) context.Context {
	ctx, enriched := logger.WithChatID(ctx, h.logger, event.ChatID)
	ctx, _ = logger.WithUserID(ctx, enriched, event.UserID)
	return ctx
}

func (h *Handler) handleCommand(ctx context.Context, event InboundEvent) Response {
	cmd, ok := ParseCommand(event.Text)
	if !ok {
		return textResponse("Unrecognized command. Send \"help\" for the list of commands.")
	}

	role := h.roles.RoleFor(event.UserID)
	if granted, reason := authz.ValidateAccess(h.allowlist, event.ChatID, cmd.Verb, role); !granted {
		return textResponse(reason)
	}

	// Idempotency hit: silently acknowledge and drop, per §7.
	if h.idempotency != nil {
		duplicate, err := h.idempotency.IsDuplicate(ctx, event.Text)
		if err != nil {
			logger.FromContext(ctx).Warn("idempotency check failed, proceeding without suppression", zap.Error(err))
		} else if duplicate {
			return textResponse("Already processed.")
		}
	}

	submitter := inventory.Submitter{UserName: event.UserName, ChatID: event.ChatID}
	if parsedID, err := uuid.Parse(event.UserID); err == nil {
		submitter.UserID = parsedID
	}

	resp := h.dispatch(ctx, cmd, submitter, event)

	if h.idempotency != nil && h.idempotencyTTL > 0 {
		if _, err := h.idempotency.StoreKey(ctx, event.Text, h.idempotencyTTL); err != nil {
			logger.FromContext(ctx).Warn("failed to store idempotency key", zap.Error(err))
		}
	}

	return resp
}

func (h *Handler) dispatch(ctx context.Context, cmd Command, submitter inventory.Submitter, event InboundEvent) Response {
	switch cmd.Verb {
	case authz.VerbHelp:
		return helpResponse(cmd.Payload)
	case authz.VerbWhoAmI:
		role := h.roles.RoleFor(event.UserID)
		return textResponse(fmt.Sprintf("%s — role: %s", event.UserName, role))
	case authz.VerbStock, authz.VerbFind:
		return h.handleStockSearch(ctx, cmd.Payload, 0)
	case authz.VerbOnHand:
		return h.handleOnHand(ctx, cmd.Payload)
	case authz.VerbIn:
		return h.handleMovementBatch(ctx, domaininv.MovementIN, cmd.Payload, submitter, false)
	case authz.VerbOut:
		return h.handleMovementBatch(ctx, domaininv.MovementOUT, cmd.Payload, submitter, false)
	case authz.VerbAdjust:
		return h.handleMovementBatch(ctx, domaininv.MovementADJUST, cmd.Payload, submitter, false)
	case authz.VerbPreview:
		direction, body, ok := PreviewDirection(cmd.Payload)
		if !ok {
			return textResponse(`usage: preview in|out <batch spec>`)
		}
		movementType := domaininv.MovementIN
		if direction == "out" {
			movementType = domaininv.MovementOUT
		}
		return h.handleMovementBatch(ctx, movementType, body, submitter, true)
	case authz.VerbInventory:
		body, validateOnly := IsValidateSubcommand(cmd.Payload)
		return h.handleStocktake(ctx, body, submitter, validateOnly)
	case authz.VerbApprove:
		return h.handleApprove(ctx, strings.TrimSpace(cmd.Payload), event)
	case authz.VerbReject:
		return h.handleReject(ctx, strings.TrimSpace(cmd.Payload), event)
	case authz.VerbAudit:
		return h.handleAudit(ctx, cmd.Payload)
	case authz.VerbExport, authz.VerbSetThreshold:
		return textResponse("This command is recognized but not yet implemented for this transport.")
	default:
		return textResponse("Unrecognized command. Send \"help\" for the list of commands.")
	}
}

// handleMovementBatch parses a batch, runs duplicate analysis, and either
// returns the preview (no writes) or stages it for approval.
func (h *Handler) handleMovementBatch(ctx context.Context, movementType domaininv.MovementType, body string, submitter inventory.Submitter, previewOnly bool) Response {
	batch := h.parser.ParseMovementBatch(movementType, body)
	if !batch.IsValid {
		return textResponse(formatParseErrors(batch.Errors))
	}

	catalogueItems, err := h.catalogue.Get(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("catalogue fetch failed during duplicate analysis", zap.Error(err))
	}

	analysis := h.duplicates.Analyze(ctx, batch.Entries, catalogueItems, movementType)
	if len(analysis.ShortfallErrors) > 0 {
		return textResponse(formatParseErrors(analysis.ShortfallErrors))
	}

	if previewOnly {
		return formatDuplicatePreview(analysis)
	}

	approval, err := h.approvals.Stage(ctx, batch.Entries, submitter)
	if err != nil {
		return textResponse(fmt.Sprintf("Could not stage batch: %s", err))
	}

	msg := fmt.Sprintf("Batch %s staged: %d entr%s awaiting approval.", approval.BatchID, len(batch.Entries), plural(len(batch.Entries), "y", "ies"))
	if len(analysis.Matches) > 0 {
		msg += "\n" + formatDuplicateSummary(analysis)
	}

	return Response{
		Message: msg,
		Buttons: [][]Button{{
			{Label: "Approve", CallbackToken: ApproveBatchToken(approval.BatchID)},
			{Label: "Reject", CallbackToken: RejectBatchToken(approval.BatchID)},
		}},
	}
}

func (h *Handler) handleStocktake(ctx context.Context, body string, submitter inventory.Submitter, validateOnly bool) Response {
	parsed := h.parser.ParseStocktake(body)
	if !parsed.IsValid {
		return textResponse(formatParseErrors(parsed.Errors))
	}
	if validateOnly {
		return textResponse(fmt.Sprintf("Stock-take parsed OK: %d entries, logged by %s.", len(parsed.Entries), strings.Join(parsed.LoggedBy, ", ")))
	}

	loggedBy := submitter.UserName
	if len(parsed.LoggedBy) > 0 {
		loggedBy = strings.Join(parsed.LoggedBy, ", ")
	}

	batchID := inventory.NewBatchID()
	result := h.stocktakes.Apply(ctx, batchID, parsed, loggedBy)

	msg := fmt.Sprintf("Stock-take %s: %d/%d applied.", batchID, result.Successful, result.Total)
	if len(result.Failed) > 0 {
		msg += "\n" + formatEntryErrors(result.Failed)
	}
	return textResponse(msg)
}

func (h *Handler) handleApprove(ctx context.Context, batchID string, event InboundEvent) Response {
	role := h.roles.RoleFor(event.UserID)
	result, err := h.approvals.Approve(ctx, batchID, role)
	if err != nil {
		return textResponse(err.Error())
	}
	return textResponse(formatBatchResult(result))
}

func (h *Handler) handleReject(ctx context.Context, batchID string, event InboundEvent) Response {
	role := h.roles.RoleFor(event.UserID)
	if err := h.approvals.Reject(ctx, batchID, role); err != nil {
		return textResponse(err.Error())
	}
	return textResponse(fmt.Sprintf("Batch %s rejected. No catalogue changes were made.", batchID))
}

func (h *Handler) handleOnHand(ctx context.Context, itemName string) Response {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return textResponse("usage: onhand <item name>")
	}
	item, err := h.items.FindByName(ctx, itemName)
	if err != nil {
		return textResponse(fmt.Sprintf("%q was not found in the catalogue.", itemName))
	}
	return textResponse(fmt.Sprintf("%s: %s %s on hand", item.Name, item.OnHand.String(), item.UnitType))
}

func (h *Handler) handleAudit(ctx context.Context, itemName string) Response {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return textResponse("usage: audit <item name>")
	}
	history, err := h.movements.FindByItemName(ctx, itemName, 10)
	if err != nil || len(history) == 0 {
		return textResponse(fmt.Sprintf("No movement history found for %q.", itemName))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Last %d movements for %s:\n", len(history), itemName)
	for _, m := range history {
		fmt.Fprintf(&b, "- %s %s %s (%s) on %s\n", m.MovementType, m.Quantity.String(), m.Unit, m.Status, m.Timestamp.Format("2006-01-02"))
	}
	return textResponse(b.String())
}

// handleStockSearch implements the `stock <query>` fuzzy-search verb (§6),
// paginated stockSearchPageSize at a time with stock_item_/stock_page_
// callback buttons.
func (h *Handler) handleStockSearch(ctx context.Context, query string, page int) Response {
	query = strings.TrimSpace(query)
	if query == "" {
		return textResponse("usage: stock <query>")
	}

	items, err := h.catalogue.Get(ctx)
	if err != nil {
		return textResponse("Catalogue is temporarily unavailable. Please retry.")
	}

	type scored struct {
		item  *domaininv.Item
		score float64
	}
	var results []scored
	for _, item := range items {
		score := domaininv.Score(query, item.Name)
		if score >= 0.5 {
			results = append(results, scored{item: item, score: score})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })

	if len(results) == 0 {
		return textResponse(fmt.Sprintf("No catalogue items match %q.", query))
	}

	start := page * stockSearchPageSize
	if start >= len(results) {
		start = 0
		page = 0
	}
	end := start + stockSearchPageSize
	if end > len(results) {
		end = len(results)
	}

	queryHash := hashQuery(query)
	h.queryCache.Store(queryHash, query)
	var b strings.Builder
	fmt.Fprintf(&b, "Matches for %q (page %d):\n", query, page+1)
	var buttons [][]Button
	for i, r := range results[start:end] {
		fmt.Fprintf(&b, "%d. %s — %s %s on hand\n", i+1, r.item.Name, r.item.OnHand.String(), r.item.UnitType)
		buttons = append(buttons, []Button{{Label: r.item.Name, CallbackToken: StockItemToken(i, slugify(r.item.Name))}})
	}

	var navRow []Button
	if page > 0 {
		navRow = append(navRow, Button{Label: "Previous", CallbackToken: StockPageToken("prev", queryHash, page-1)})
	}
	if end < len(results) {
		navRow = append(navRow, Button{Label: "Next", CallbackToken: StockPageToken("next", queryHash, page+1)})
	}
	if len(navRow) > 0 {
		buttons = append(buttons, navRow)
	}

	return Response{Message: b.String(), Buttons: buttons}
}

func plural(n int, singular, multi string) string {
	if n == 1 {
		return singular
	}
	return multi
}
