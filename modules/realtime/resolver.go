package realtime

import (
	chat "github.com/example/chat-backend/domain/chat"
)

// Room resolution is implemented once per entity type so the dispatcher
// never special-cases entities: a watcher resolves its rooms here and hands
// plain room ids to the hub.

// messageRooms resolves the single room a message belongs to, its server or
// its conversation. The write path guarantees exactly one is set.
func messageRooms(m *chat.Message) []string {
	room := m.Room()
	if room == "" {
		return nil
	}
	return []string{room}
}

// friendRooms resolves both parties' personal rooms.
func friendRooms(f *chat.Friend) []string {
	return []string{f.SenderID, f.RecipientID}
}

// conversationRooms resolves every member's personal room.
func conversationRooms(members []chat.PublicProfile) []string {
	rooms := make([]string, 0, len(members))
	for _, member := range members {
		rooms = append(rooms, member.ID)
	}
	return rooms
}

// fieldsInclude reports whether any watched field is among the changed
// fields of an update.
func fieldsInclude(fields []string, watched ...string) bool {
	for _, field := range fields {
		for _, w := range watched {
			if field == w {
				return true
			}
		}
	}
	return false
}
