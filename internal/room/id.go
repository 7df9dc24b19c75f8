package room

import (
	"fmt"
	"sort"
	"strings"
)

// Wire-format prefixes. They partition the identifier space: every
// canonical id starts with exactly one of them.
const (
	prefixDirect  = "DIRECT_"
	prefixBooking = "BOOKING_"
	prefixGroup   = "GROUP_"
	prefixSupport = "SUPPORT_"
	prefixInquiry = "INQUIRY_"
)

var kindPrefix = map[Kind]string{
	KindDirect:  prefixDirect,
	KindBooking: prefixBooking,
	KindGroup:   prefixGroup,
	KindSupport: prefixSupport,
	KindInquiry: prefixInquiry,
}

// DirectID returns the canonical room id for a direct chat between two
// users. Participant order does not matter: ids are sorted before
// joining, so every caller path resolves the same room.
func DirectID(a, b string) string {
	return pairID(prefixDirect, a, b)
}

// BookingID returns the canonical room id for a tenant/manager booking
// conversation.
func BookingID(a, b string) string {
	return pairID(prefixBooking, a, b)
}

func GroupID(groupID string) string {
	return prefixGroup + groupID
}

func SupportID(ticketID string) string {
	return prefixSupport + ticketID
}

func InquiryID(inquiryID string) string {
	return prefixInquiry + inquiryID
}

func pairID(prefix, a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return prefix + strings.Join(pair, "_")
}

// Resolve builds the canonical id for a kind and its participant keys.
// Pair-wise kinds take exactly two user ids; entity kinds take one
// entity id.
func Resolve(kind Kind, keys ...string) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown room kind %q", kind)
	}
	for _, k := range keys {
		if k == "" {
			return "", fmt.Errorf("empty participant key for %s room", kind)
		}
	}
	if kind.PairWise() {
		if len(keys) != 2 {
			return "", fmt.Errorf("%s room requires two participant keys, got %d", kind, len(keys))
		}
		return pairID(kindPrefix[kind], keys[0], keys[1]), nil
	}
	if len(keys) != 1 {
		return "", fmt.Errorf("%s room requires one entity key, got %d", kind, len(keys))
	}
	return kindPrefix[kind] + keys[0], nil
}

// SplitPairKey breaks a pair-room key ("alice_bob") back into its two
// user ids. User ids themselves never contain underscores, so a pair
// key splits into exactly two parts.
func SplitPairKey(key string) (string, string, bool) {
	parts := strings.Split(key, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Parse splits a canonical id back into kind and key. It is only used
// at the boundary; internal code carries the Kind explicitly.
func Parse(id string) (Kind, string, error) {
	for kind, prefix := range kindPrefix {
		if strings.HasPrefix(id, prefix) && len(id) > len(prefix) {
			return kind, id[len(prefix):], nil
		}
	}
	return "", "", fmt.Errorf("unrecognized room id %q", id)
}

// Normalize maps legacy identifiers onto the canonical scheme. Old
// clients produced three spellings of the same direct chat: bare
// sorted joins ("alice_bob"), dash-joined pairs ("alice-bob"), and the
// REST-era "CHAT_alice_bob". All are aliases of the DIRECT_ form.
// Already-canonical ids pass through unchanged.
func Normalize(id string) string {
	if _, _, err := Parse(id); err == nil {
		return id
	}
	id = strings.TrimPrefix(id, "CHAT_")
	sep := "_"
	if !strings.Contains(id, "_") && strings.Contains(id, "-") {
		sep = "-"
	}
	parts := strings.Split(id, sep)
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return DirectID(parts[0], parts[1])
	}
	return id
}
