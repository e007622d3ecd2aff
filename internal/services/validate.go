package services

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/laporinpolisi/laporin-backend/internal/apperror"
	"github.com/laporinpolisi/laporin-backend/internal/identity"
)

const (
	maxTitleLen    = 256
	maxLocationLen = 256
	maxURLLen      = 512
	maxTagLen      = 50
	maxCommentLen  = 2000
	maxReasonLen   = 1000
	maxPlatformLen = 50
	maxNameLen     = 255
	maxBioLen      = 500
	maxNotesLen    = 2000
	maxCommunity   = 100
)

// Page size bounds per listing.
const (
	DefaultReportLimit = 20
	MaxReportLimit     = 100
	DefaultPageLimit   = 20
	MaxPageLimit       = 50
	DefaultSearchLimit = 10
	MaxSearchLimit     = 20
)

// requiredText trims value and checks it is non-empty and at most max runes.
func requiredText(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperror.Validation(field, field+" is required")
	}
	if utf8.RuneCountInString(value) > max {
		return "", apperror.Validation(field, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return value, nil
}

func maxText(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return apperror.Validation(field, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return nil
}

// publicURL accepts absolute http(s) URLs only.
func publicURL(field, raw string) error {
	if err := maxText(field, raw, maxURLLen); err != nil {
		return err
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperror.Validation(field, field+" must be an http or https URL")
	}
	return nil
}

// pageBounds applies def when limit is zero and rejects anything outside 1..max.
func pageBounds(limit, offset, def, max int) (int, int, error) {
	if limit == 0 {
		limit = def
	}
	if limit < 1 || limit > max {
		return 0, 0, apperror.Validation("limit", fmt.Sprintf("limit must be between 1 and %d", max))
	}
	if offset < 0 {
		return 0, 0, apperror.Validation("offset", "offset must not be negative")
	}
	return limit, offset, nil
}

// normalizeTags lowercases, trims and de-duplicates tag names, keeping first-seen order.
func normalizeTags(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		name, err := requiredText("tags", strings.ToLower(t), maxTagLen)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tags = append(tags, name)
	}
	return tags, nil
}

func requireAuth(caller identity.Caller) error {
	if !caller.Authenticated() {
		return apperror.Unauthorized("login required")
	}
	return nil
}

func requireAdmin(caller identity.Caller) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	if !caller.IsAdmin {
		return apperror.Forbidden("admin access required")
	}
	return nil
}

// storageError passes typed errors through and wraps anything else as internal.
func storageError(message string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Internal(message, err)
}
