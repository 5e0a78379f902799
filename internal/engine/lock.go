package engine

import "spot-trader/internal/types"

// applyLock runs the consecutive-trade lock for one candidate.
//
//	IDLE       + candidate == target          -> fire, LOCKED(candidate)
//	LOCKED(d)  + candidate == d               -> HOLD
//	LOCKED(d)  + candidate == opposite of d   -> IDLE, then fire only if candidate == target
//	anything else                             -> HOLD, state unchanged
//
// A HOLD or SKIP candidate never unlocks; only the opposite side does.
// When flip is set the target switches to the opposite side after every fire.
func applyLock(candidate types.Action, st SymbolState, flip bool) (types.Action, SymbolState) {
	if !candidate.IsTrade() {
		return types.ActionHold, st
	}

	if st.Locked {
		if candidate == st.LockedSide {
			return types.ActionHold, st
		}
		st.Locked = false
		st.LockedSide = ""
	}

	if candidate != st.Target {
		return types.ActionHold, st
	}

	st.Locked = true
	st.LockedSide = candidate
	if flip {
		st.Target = candidate.Opposite()
	}
	return candidate, st
}
