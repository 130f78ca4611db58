package utils

import (
	"regexp"
	"strings"
)

var (
	displayNameRegex  = regexp.MustCompile(`^"?([^"<]+)"?\s*<`)
	angleAddressRegex = regexp.MustCompile(`<([^<>@\s]+@[^<>\s]+)>`)
	plainAddressRegex = regexp.MustCompile(`[\w.+\-]+@[\w\-]+(\.[\w\-]+)+`)
)

// ExtractNameFromAddress returns the display name of a `"Name" <addr>` header,
// falling back to the local part of the address.
func ExtractNameFromAddress(from string) string {
	from = strings.TrimSpace(from)
	if from == "" {
		return ""
	}
	if m := displayNameRegex.FindStringSubmatch(from); len(m) > 1 {
		name := strings.TrimSpace(m[1])
		if name != "" {
			return name
		}
	}
	address := ExtractAddress(from)
	if at := strings.Index(address, "@"); at > 0 {
		return address[:at]
	}
	return address
}

// ExtractAddress pulls the bare address out of a From/To style header value.
func ExtractAddress(from string) string {
	from = strings.TrimSpace(from)
	if m := angleAddressRegex.FindStringSubmatch(from); len(m) > 1 {
		return strings.ToLower(m[1])
	}
	if m := plainAddressRegex.FindString(from); m != "" {
		return strings.ToLower(m)
	}
	return strings.ToLower(from)
}

func ExtractDomainFromEmail(email string) string {
	email = ExtractAddress(email)
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(parts[1]))
}

func UniqueEmails(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	unique := make([]string, 0, len(emails))

	for _, email := range emails {
		if _, exists := seen[email]; !exists {
			seen[email] = struct{}{}
			unique = append(unique, email)
		}
	}

	return unique
}
