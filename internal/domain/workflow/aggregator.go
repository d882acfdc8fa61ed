package workflow

import (
	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
)

// ItemDecision is the Kepala Bidang decision for one line item
type ItemDecision struct {
	ItemID          int64             `json:"item_id" binding:"required"`
	StatusItem      entity.StatusItem `json:"status_item" binding:"required,oneof=pending approved rejected"`
	JumlahDisetujui *int              `json:"jumlah_disetujui,omitempty"`
}

// ApproveAll returns decisions approving every item for its full requested quantity
func ApproveAll(items []*entity.LineItem) []ItemDecision {
	decisions := make([]ItemDecision, 0, len(items))
	for _, item := range items {
		qty := item.JumlahAlat
		decisions = append(decisions, ItemDecision{
			ItemID:          item.ID,
			StatusItem:      entity.ItemApproved,
			JumlahDisetujui: &qty,
		})
	}
	return decisions
}

// RejectAll returns decisions rejecting every item
func RejectAll(items []*entity.LineItem) []ItemDecision {
	decisions := make([]ItemDecision, 0, len(items))
	for _, item := range items {
		decisions = append(decisions, ItemDecision{
			ItemID:     item.ID,
			StatusItem: entity.ItemRejected,
		})
	}
	return decisions
}

// ApplyDecisions returns copies of items with decisions applied.
// Items without a decision keep their stored state. An approved item without an
// approved quantity defaults to the full requested quantity; a rejected item gets zero.
func ApplyDecisions(items []*entity.LineItem, decisions []ItemDecision) ([]*entity.LineItem, error) {
	if len(items) == 0 {
		return nil, ErrNoItemsToDecide
	}

	byID := make(map[int64]*entity.LineItem, len(items))
	updated := make([]*entity.LineItem, 0, len(items))
	for _, item := range items {
		cp := *item
		if item.JumlahDisetujui != nil {
			qty := *item.JumlahDisetujui
			cp.JumlahDisetujui = &qty
		}
		byID[cp.ID] = &cp
		updated = append(updated, &cp)
	}

	seen := make(map[int64]bool, len(decisions))
	for _, d := range decisions {
		item, ok := byID[d.ItemID]
		if !ok {
			return nil, Validationf("item %d does not belong to this submission", d.ItemID)
		}
		if seen[d.ItemID] {
			return nil, Validationf("item %d decided more than once", d.ItemID)
		}
		seen[d.ItemID] = true

		switch d.StatusItem {
		case entity.ItemApproved:
			qty := item.JumlahAlat
			if d.JumlahDisetujui != nil {
				qty = *d.JumlahDisetujui
			}
			if qty <= 0 || qty > item.JumlahAlat {
				return nil, Validationf("item %d: approved quantity %d must be between 1 and %d", d.ItemID, qty, item.JumlahAlat)
			}
			item.StatusItem = entity.ItemApproved
			item.JumlahDisetujui = &qty
		case entity.ItemRejected:
			zero := 0
			item.StatusItem = entity.ItemRejected
			item.JumlahDisetujui = &zero
		case entity.ItemPending:
			item.StatusItem = entity.ItemPending
			item.JumlahDisetujui = nil
		default:
			return nil, Validationf("item %d: unknown status %q", d.ItemID, d.StatusItem)
		}
	}

	return updated, nil
}

// Aggregate derives the submission-level Kabid status from the line-item decisions
func Aggregate(items []*entity.LineItem) (entity.StatusKabid, error) {
	if len(items) == 0 {
		return "", ErrNoItemsToDecide
	}

	allFull, allRejected := true, true
	for _, item := range items {
		if !item.FullyApproved() {
			allFull = false
		}
		if item.StatusItem != entity.ItemRejected {
			allRejected = false
		}
	}

	switch {
	case allFull:
		return entity.KabidDisetujuiSepenuhnya, nil
	case allRejected:
		return entity.KabidDitolak, nil
	default:
		return entity.KabidDisetujuiSebagian, nil
	}
}
