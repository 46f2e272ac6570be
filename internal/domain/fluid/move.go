package fluid

import (
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// Move transfers fluid from src tank si to dst tank di.
// It moves min(available, headroom, limit) in one step and returns the moved volume;
// nothing is created or destroyed.
func Move(src *Container, si int, dst *Container, di int, limit shared.Amount) Volume {
	from, ok := src.Tank(si)
	if !ok || from.IsEmpty() {
		return EmptyVolume
	}
	to, ok := dst.Tank(di)
	if !ok {
		return EmptyVolume
	}

	available := from.Content()
	if limit.IsPositive() {
		available.Amount = available.Amount.CoerceAtMost(limit)
	}
	accepted := to.acceptable(available)
	if !accepted.IsPositive() || accepted.IsOverflow() {
		return EmptyVolume
	}

	moved := from.extract(accepted)
	if rest := to.insert(moved); !rest.IsEmpty() {
		from.insert(rest)
		moved.Amount = moved.Amount.Sub(rest.Amount)
	}
	return moved
}

// MoveExternal drains src's output tanks into dst's input tanks, up to limit in total
func MoveExternal(src, dst *Container, limit shared.Amount) shared.Amount {
	total := shared.ZeroAmount
	for _, si := range src.OutputTanks() {
		from, _ := src.Tank(si)
		if from.IsEmpty() {
			continue
		}
		offer := from.Content()
		if limit.IsPositive() {
			remaining := limit.Sub(total)
			if !remaining.IsPositive() {
				break
			}
			offer.Amount = offer.Amount.CoerceAtMost(remaining)
		}
		accepted := dst.AcceptableExternal(offer)
		if !accepted.IsPositive() {
			continue
		}
		moved := from.extract(accepted)
		if rest := dst.InsertExternal(moved); !rest.IsEmpty() {
			from.insert(rest)
			moved.Amount = moved.Amount.Sub(rest.Amount)
		}
		total = total.Add(moved.Amount)
	}
	return total
}
