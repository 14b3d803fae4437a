package platforms

import (
	"strings"
	"time"

	"github.com/arne-braeckman/eventrunner-integrations/internal/models"
	"github.com/sirupsen/logrus"
)

// applyLeadField maps one platform-reported form field onto the normalized
// lead shape. Field names are matched case-insensitively; anything
// unrecognized is preserved in the lead's metadata so nothing is lost.
func applyLeadField(lead *models.LeadCaptureData, name, value string) {
	if value == "" {
		return
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "email", "email_address", "work_email":
		lead.Email = value
	case "full_name", "name", "first_and_last_name":
		lead.Name = value
	case "phone_number", "phone", "mobile_number":
		lead.Phone = value
	case "company_name", "company", "organization":
		lead.Company = value
	case "message", "notes", "comments", "event_details":
		lead.Message = value
	default:
		if lead.Metadata == nil {
			lead.Metadata = make(map[string]string)
		}
		lead.Metadata[strings.ToLower(strings.TrimSpace(name))] = value
	}
}

// NormalizeLead builds a normalized lead from raw platform field name/value
// pairs, for callers outside the adapters (the webhook boundary).
func NormalizeLead(platform models.Platform, fields map[string]string) models.LeadCaptureData {
	lead := models.LeadCaptureData{Platform: platform}
	for name, value := range fields {
		applyLeadField(&lead, name, value)
	}
	return lead
}

// parseTimestamp parses a platform-reported timestamp, logging when a
// non-empty value fails to parse so a record skipped by a since filter
// leaves a trace.
func parseTimestamp(platform models.Platform, layout, value string) time.Time {
	ts, err := time.Parse(layout, value)
	if err != nil && value != "" {
		logrus.Warnf("Unparseable %s timestamp %q: %v", platform, value, err)
	}
	return ts
}

// afterSince reports whether ts falls at or after the optional lower bound.
func afterSince(ts time.Time, since *time.Time) bool {
	if since == nil {
		return true
	}
	return !ts.Before(*since)
}

// matchesProfile reports whether a platform-side actor corresponds to the
// contact's linked profile, by id or handle.
func matchesProfile(profile models.SocialProfile, userID, userHandle string) bool {
	if profile.Handle == "" {
		return false
	}
	if userID != "" && userID == profile.Handle {
		return true
	}
	return userHandle != "" && strings.EqualFold(userHandle, profile.Handle)
}
