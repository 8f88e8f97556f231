// Package chat holds the pure helpers shared by the relay and the peer:
// room naming, signal envelopes, quality buckets, status labels, message
// nodes and media toggles. Nothing in here does I/O.
package chat

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultRoomName is used when the user leaves the room field blank.
	DefaultRoomName RoomName = "default-room"
	// DefaultUserName is used when the user leaves the name field blank.
	DefaultUserName = "Anonymous"
	// ChannelPrefix marks relay rooms that emit membership events.
	ChannelPrefix = "observable-"
)

// RoomName is a room as the user typed it, after normalization.
type RoomName string

// ChannelID is the relay room a RoomName maps to. Only GetChannelRoom
// produces one, so the prefix is applied at a single boundary.
type ChannelID string

func (r RoomName) String() string  { return string(r) }
func (c ChannelID) String() string { return string(c) }

// NormalizeRoomName trims raw and falls back to DefaultRoomName when nothing is left.
func NormalizeRoomName(raw string) RoomName {
	if trimmed := Trim(raw); trimmed != "" {
		return RoomName(trimmed)
	}
	return DefaultRoomName
}

// NormalizeUserName trims raw and falls back to DefaultUserName when nothing is left.
func NormalizeUserName(raw string) string {
	if trimmed := Trim(raw); trimmed != "" {
		return trimmed
	}
	return DefaultUserName
}

// Trim strips leading and trailing whitespace and line terminators as
// ECMAScript defines them. Unlike strings.TrimSpace it strips U+FEFF and
// keeps U+0085.
func Trim(s string) string {
	return strings.TrimFunc(s, isJSSpace)
}

func isJSSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\uFEFF', '\u2028', '\u2029':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// GetChannelRoom prefixes room with ChannelPrefix. It does not look for an
// existing prefix: a room literally named "observable-x" becomes
// "observable-observable-x".
func GetChannelRoom(room RoomName) ChannelID {
	return ChannelID(ChannelPrefix + string(room))
}

// RoomNameFromChannel strips one ChannelPrefix from channel.
func RoomNameFromChannel(channel ChannelID) (RoomName, bool) {
	name, ok := strings.CutPrefix(string(channel), ChannelPrefix)
	if !ok {
		return "", false
	}
	return RoomName(name), true
}

// ParseRoomFromHash extracts a room name from a location hash such as
// "#friday%20standup". The first character is dropped, the rest is
// percent-decoded. A malformed escape yields the undecoded remainder.
func ParseRoomFromHash(hash string) string {
	if hash == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(hash)
	raw := hash[size:]
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil || !utf8.ValidString(decoded) {
		return raw
	}
	return decoded
}

// BuildRoomLink returns a shareable link for room. origin and pathname are
// joined as given.
func BuildRoomLink(origin, pathname string, room RoomName) string {
	return origin + pathname + "#" + EncodeURIComponent(string(room))
}

// EncodeURIComponent escapes s the way browsers' encodeURIComponent does:
// everything except A-Z a-z 0-9 and -_.!~*'() is percent-encoded as UTF-8.
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isURIUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isURIUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
