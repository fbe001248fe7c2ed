package models

// toggleVoter returns a new voter slice with userID added or removed, and whether it was added.
// The input slice is never modified.
func toggleVoter(voters []string, userID string) ([]string, bool) {
	out := make([]string, 0, len(voters)+1)
	removed := false
	for _, voter := range voters {
		if voter == userID {
			removed = true
			continue
		}
		out = append(out, voter)
	}
	if removed {
		return out, false
	}
	return append(out, userID), true
}

func containsVoter(voters []string, userID string) bool {
	for _, voter := range voters {
		if voter == userID {
			return true
		}
	}
	return false
}

// adjustCount increments on an added vote and decrements, floored at zero, on a removed one.
func adjustCount(count int, added bool) int {
	if added {
		return count + 1
	}
	if count <= 0 {
		return 0
	}
	return count - 1
}
