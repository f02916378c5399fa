package payload

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/job-alert/internal/domain/alert"
)

// Type discriminators of job alert messages.
const (
	TypeNewJob    = "new_job"
	TypeUrgentJob = "urgent_job"
)

// Fallbacks for optional business fields.
const (
	DefaultTitle    = "New Job Alert!"
	DefaultPrice    = "0"
	DefaultLocation = "Nearby"
)

// ErrMalformedPayload is returned when a message carries no job alert discriminator.
var ErrMalformedPayload = errors.New("malformed job alert payload")

// Message keys, aliases listed after the preferred spelling.
//
//nolint:gochecknoglobals // Read-only lookup tables.
var (
	keyType         = []string{"type"}
	keyJobID        = []string{"jobId", "job_id"}
	keyTitle        = []string{"title"}
	keyDescription  = []string{"description"}
	keyPrice        = []string{"price"}
	keyLocation     = []string{"location"}
	keyCustomerName = []string{"customerName", "customer_name"}
	keyUrgency      = []string{"urgency"}

	urgentValues = map[string]struct{}{
		"urgent":    {},
		"high":      {},
		"immediate": {},
		"emergency": {},
	}
)

// Parse validates the message and builds a JobAlert received at now.
// Missing optional fields get their fallback literal; only a missing or
// unknown type discriminator is an error.
func Parse(data map[string]string, now time.Time) (*alert.JobAlert, error) {
	kind := lookup(data, keyType)

	switch kind {
	case TypeNewJob, TypeUrgentJob:
	case "":
		return nil, fmt.Errorf("%w: type is missing", ErrMalformedPayload)
	default:
		return nil, fmt.Errorf("%w: type %q is not a job alert", ErrMalformedPayload, kind)
	}

	urgency := alert.UrgencyNormal
	if _, ok := urgentValues[strings.ToLower(lookup(data, keyUrgency))]; ok || kind == TypeUrgentJob {
		urgency = alert.UrgencyUrgent
	}

	return &alert.JobAlert{
		ID:           lookup(data, keyJobID),
		Kind:         kind,
		Title:        withDefault(lookup(data, keyTitle), DefaultTitle),
		PriceDisplay: withDefault(lookup(data, keyPrice), DefaultPrice),
		Location:     withDefault(lookup(data, keyLocation), DefaultLocation),
		CustomerName: lookup(data, keyCustomerName),
		Description:  lookup(data, keyDescription),
		Urgency:      urgency,
		ReceivedAt:   now,
	}, nil
}

// ParseStruct flattens a protobuf Struct into a string map and parses it.
func ParseStruct(message *structpb.Struct, now time.Time) (*alert.JobAlert, error) {
	return Parse(Flatten(message), now)
}

// Flatten converts the scalar fields of a Struct into strings.
// Nested structs, lists and nulls are skipped.
func Flatten(message *structpb.Struct) map[string]string {
	fields := message.GetFields()
	result := make(map[string]string, len(fields))

	for key, value := range fields {
		switch kind := value.GetKind().(type) {
		case *structpb.Value_StringValue:
			result[key] = kind.StringValue
		case *structpb.Value_NumberValue:
			result[key] = strconv.FormatFloat(kind.NumberValue, 'f', -1, 64)
		case *structpb.Value_BoolValue:
			result[key] = strconv.FormatBool(kind.BoolValue)
		}
	}

	return result
}

// Generic is the fallback notification content for messages that are not job alerts.
type Generic struct {
	Title string
	Body  string
}

// DefaultGenericTitle is used when a generic message has no title.
const DefaultGenericTitle = "Helparo"

// ParseGeneric extracts the title and body of a regular notification.
func ParseGeneric(data map[string]string) Generic {
	return Generic{
		Title: withDefault(lookup(data, keyTitle), DefaultGenericTitle),
		Body:  lookup(data, []string{"body", "message"}),
	}
}

// lookup returns the first non-blank value among the key aliases.
func lookup(data map[string]string, keys []string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(data[key]); value != "" {
			return value
		}
	}

	return ""
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
