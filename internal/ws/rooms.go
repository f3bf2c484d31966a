package ws

// GlobalRoom is the singleton room every authenticated connection joins.
const GlobalRoom = "global"

// DMRoom maps an unordered pair of user ids to a stable room identifier.
// Lexicographic ordering makes it commutative: both participants resolve the
// same room regardless of who initiates.
func DMRoom(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "dm:" + a + ":" + b
}

// UserRoom is the personal room keyed by a single user's identity. DMs are
// delivered here rather than to the DM room itself, so every one of the
// user's concurrent connections receives them.
func UserRoom(userID string) string {
	return "user:" + userID
}

// RoomKind classifies a room identifier for metrics labels.
func RoomKind(room string) string {
	if room == GlobalRoom {
		return "global"
	}
	return "dm"
}
