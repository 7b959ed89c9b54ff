package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sitestock/inventorybot/internal/infrastructure/logger"
)

// handleCallback dispatches one of the opaque callback tokens named in §6.
// Callbacks bypass ParseCommand/idempotency entirely: a button press is
// inherently a single action, not resubmittable free text.
func (h *Handler) handleCallback(ctx context.Context, event InboundEvent) Response {
	parsed := ParseCallbackToken(event.CallbackToken)
	role := h.roles.RoleFor(event.UserID)

	switch parsed.Kind {
	case CallbackApproveBatch:
		return h.handleApprove(ctx, parsed.BatchID, event)
	case CallbackRejectBatch:
		return h.handleReject(ctx, parsed.BatchID, event)

	case CallbackConfirmIndividual:
		return h.resolveDuplicateCallback(event.ChatID, parsed.Index, true)
	case CallbackCancelIndividual:
		return h.resolveDuplicateCallback(event.ChatID, parsed.Index, false)

	case CallbackConfirmAllDuplicates:
		if err := h.approvals.ConfirmAllDuplicates(event.ChatID); err != nil {
			return textResponse(err.Error())
		}
		return textResponse("All duplicate candidates confirmed and merged.")
	case CallbackCancelAllDuplicates:
		if err := h.approvals.CancelAllDuplicates(event.ChatID); err != nil {
			return textResponse(err.Error())
		}
		return textResponse("All duplicate candidates cancelled.")
	case CallbackShowAllDuplicates:
		return h.showAllDuplicates(event.ChatID)

	case CallbackStockItem:
		return h.showStockItem(ctx, parsed.Slug)

	case CallbackStockPagePrev, CallbackStockPageNext:
		query, ok := h.queryCache.Load(parsed.QueryHash)
		if !ok {
			return textResponse("This search has expired. Please search again.")
		}
		return h.handleStockSearch(ctx, query.(string), parsed.Page)

	default:
		logger.FromContext(ctx).Warn("unrecognized callback token", zap.String("token", event.CallbackToken), zap.String("role", string(role)))
		return textResponse("This button is no longer valid.")
	}
}

func (h *Handler) resolveDuplicateCallback(chatID string, index int, confirm bool) Response {
	var err error
	if confirm {
		err = h.approvals.ConfirmDuplicate(chatID, index)
	} else {
		err = h.approvals.CancelDuplicate(chatID, index)
	}
	if err != nil {
		return textResponse(err.Error())
	}
	if confirm {
		return textResponse("Duplicate candidate confirmed.")
	}
	return textResponse("Duplicate candidate cancelled.")
}

func (h *Handler) showAllDuplicates(chatID string) Response {
	entry, ok := h.approvals.GetDuplicates(chatID)
	if !ok {
		return textResponse("No pending duplicate candidates for this chat.")
	}
	var buttons [][]Button
	for i, m := range entry.Duplicates {
		label := fmt.Sprintf("%d. %s ~ %s (%.0f%%)", i+1, m.Candidate, m.Existing.Name, m.Score*100)
		buttons = append(buttons, []Button{
			{Label: "Confirm " + label, CallbackToken: ConfirmIndividualToken(i)},
			{Label: "Cancel " + label, CallbackToken: CancelIndividualToken(i)},
		})
	}
	return Response{Message: fmt.Sprintf("%d duplicate candidate(s) awaiting a decision:", len(entry.Duplicates)), Buttons: buttons}
}

func (h *Handler) showStockItem(ctx context.Context, slug string) Response {
	items, err := h.catalogue.Get(ctx)
	if err != nil {
		return textResponse("Catalogue is temporarily unavailable. Please retry.")
	}
	for _, item := range items {
		if slugify(item.Name) == slug {
			return textResponse(fmt.Sprintf("%s\nOn hand: %s %s\nCategory: %s\nLocation: %s",
				item.Name, item.OnHand.String(), item.UnitType, item.Category, item.Location))
		}
	}
	return textResponse("That catalogue item could no longer be found.")
}
