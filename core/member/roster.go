package member

// Active returns the active members of roster, in roster order.
// roster is left untouched.
func Active(roster []Member) []Member {
	active := make([]Member, 0, len(roster))
	for _, m := range roster {
		if m.IsActive {
			active = append(active, m)
		}
	}
	return active
}
