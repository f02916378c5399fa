package alert

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/job-alert/internal/domain/alert"
	"github.com/oshokin/job-alert/internal/service/feedback"
	"github.com/oshokin/job-alert/internal/service/lifecycle"
	"github.com/oshokin/job-alert/internal/service/payload"
	"github.com/oshokin/job-alert/internal/service/router"
)

// Field names of the Deliver request.
const (
	FieldData   = "data"
	FieldDevice = "device"

	FieldDeviceLocked         = "locked"
	FieldDeviceInteractive    = "interactive"
	FieldFullScreenPermission = "full_screen_permission"
)

// OutcomeGeneric is reported for messages shown as a generic notification.
const OutcomeGeneric = "generic_notification"

var (
	// ErrDataRequired is returned for a Deliver request without a data object.
	ErrDataRequired = errors.New("data object is required")
	// ErrInvalidDevice is returned for a device block that is not an object of booleans.
	ErrInvalidDevice = errors.New("device must be an object of booleans")
)

// NewDeliverRequest encodes a message and an optional device environment.
func NewDeliverRequest(data map[string]string, env *domain.Environment) (*structpb.Struct, error) {
	fields := make(map[string]any, len(data))
	for key, value := range data {
		fields[key] = value
	}

	request := map[string]any{FieldData: fields}

	if env != nil {
		request[FieldDevice] = map[string]any{
			FieldDeviceLocked:         env.DeviceLocked,
			FieldDeviceInteractive:    env.DeviceInteractive,
			FieldFullScreenPermission: env.FullScreenPermission,
		}
	}

	message, err := structpb.NewStruct(request)
	if err != nil {
		return nil, fmt.Errorf("encode deliver request: %w", err)
	}

	return message, nil
}

// ParseDeliverRequest decodes a Deliver request. The environment is nil when
// the request carries no device block.
func ParseDeliverRequest(request *structpb.Struct) (map[string]string, *domain.Environment, error) {
	data := request.GetFields()[FieldData].GetStructValue()
	if data == nil {
		return nil, nil, ErrDataRequired
	}

	value, ok := request.GetFields()[FieldDevice]
	if !ok {
		return payload.Flatten(data), nil, nil
	}

	device := value.GetStructValue()
	if device == nil {
		return nil, nil, ErrInvalidDevice
	}

	var env domain.Environment

	for key, target := range map[string]*bool{
		FieldDeviceLocked:         &env.DeviceLocked,
		FieldDeviceInteractive:    &env.DeviceInteractive,
		FieldFullScreenPermission: &env.FullScreenPermission,
	} {
		field, ok := device.GetFields()[key]
		if !ok {
			continue
		}

		flag, ok := field.GetKind().(*structpb.Value_BoolValue)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrInvalidDevice, key)
		}

		*target = flag.BoolValue
	}

	return payload.Flatten(data), &env, nil
}

// routedToStruct encodes the result of Deliver.
func routedToStruct(routed *router.Routed) (*structpb.Struct, error) {
	if routed.Generic || routed.Delivery == nil {
		return structpb.NewStruct(map[string]any{"outcome": OutcomeGeneric})
	}

	delivery := routed.Delivery

	response := map[string]any{
		"outcome":      string(delivery.Outcome),
		"session_id":   delivery.SessionID,
		"presentation": string(delivery.Presentation),
		"feedback":     reportToMap(delivery.Feedback),
	}

	if delivery.Superseded != nil {
		response["superseded"] = resolutionToMap(delivery.Superseded)
	}

	return structpb.NewStruct(response)
}

// resultToStruct encodes the result of a trigger.
func resultToStruct(result lifecycle.Result) (*structpb.Struct, error) {
	response := map[string]any{"applied": result.Applied}

	if result.Applied {
		response["session_id"] = result.SessionID
		response["state"] = string(result.State)
		response["feedback"] = reportToMap(result.Feedback)
	}

	return structpb.NewStruct(response)
}

// statusToStruct encodes the machine status.
func statusToStruct(status lifecycle.Status) (*structpb.Struct, error) {
	response := make(map[string]any, 2)

	if active := status.Active; active != nil {
		response["active"] = map[string]any{
			"session_id":   active.SessionID,
			"alert_id":     active.Alert.ID,
			"title":        active.Alert.Title,
			"summary":      active.Alert.Summary(),
			"urgency":      string(active.Alert.Urgency),
			"presentation": string(active.Presentation),
			"state":        string(active.State),
			"created_at":   active.CreatedAt.Format(time.RFC3339),
			"deadline":     active.Deadline.Format(time.RFC3339),
			"feedback":     reportToMap(active.Feedback),
		}
	}

	if status.Last != nil {
		last := resolutionToMap(status.Last)
		last["feedback"] = reportToMap(status.LastFeedback)
		response["last"] = last
	}

	return structpb.NewStruct(response)
}

func resolutionToMap(r *domain.Resolution) map[string]any {
	return map[string]any{
		"session_id":   r.SessionID,
		"alert_id":     r.Alert.ID,
		"presentation": string(r.Presentation),
		"decision":     string(r.Decision),
		"reason":       r.Reason,
		"resolved_at":  r.ResolvedAt.Format(time.RFC3339),
	}
}

func reportToMap(r feedback.Report) map[string]any {
	return map[string]any{
		"started":        r.Started,
		"stopped":        r.Stopped,
		"tone":           string(r.Tone),
		"vibrating":      r.Vibrating,
		"wake_lock_held": r.WakeLockHeld,
		"degraded":       r.Degraded,
	}
}
