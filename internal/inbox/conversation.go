package inbox

import (
	"sort"
	"strings"
)

// ConversationID derives the thread key for a pair of users. The pair is
// sorted first, so both participants resolve to the same conversation no
// matter who initiated it.
func ConversationID(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, "-")
}
