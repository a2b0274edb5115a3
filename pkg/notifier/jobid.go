package notifier

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stockalert/pkg/change"
)

var jobNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://stockalert.dev/notification-job"))

// JobID returns the stable ID of the notification of one change to one recipient.
// Identical inputs always give the same ID; any differing value gives a new one.
func JobID(recipient, listingID string, c change.Category, oldValue, newValue float64) uuid.UUID {
	kind := ""
	if c != nil {
		kind = string(c.Attribute()) + "/" + c.Kind()
	}

	name := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(recipient)),
		listingID,
		kind,
		strconv.FormatFloat(oldValue, 'g', -1, 64),
		strconv.FormatFloat(newValue, 'g', -1, 64),
	}, "\x1f")

	return uuid.NewSHA1(jobNamespace, []byte(name))
}
