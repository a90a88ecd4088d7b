package notify

import (
	"fmt"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/dchealth/dchealth/internal/config"
)

// Target holds a fully resolved notification target ready to send.
type Target struct {
	ServiceName string
	URL         string
	Message     string
	Params      map[string]string
}

// ResolveTargets builds the list of notification targets from the config's
// notify list and service definitions. It renders the message template and
// param value templates for each target.
func ResolveTargets(
	notifyList []config.NotifyTarget,
	services map[string]config.Service,
	data TemplateData,
) ([]Target, error) {
	var targets []Target

	for _, ref := range notifyList {
		svc, ok := services[ref.Service]
		if !ok {
			return nil, fmt.Errorf("unknown service %q", ref.Service)
		}

		tmplStr := DefaultTemplate
		if ref.Template != "" {
			tmplStr = ref.Template
		}

		msg, err := Render(tmplStr, data)
		if err != nil {
			return nil, fmt.Errorf("rendering template for %s: %w", ref.Service, err)
		}

		// Merge params: service base ← per-target override.
		merged := make(map[string]string)
		for k, v := range svc.Params {
			merged[k] = v
		}
		for k, v := range ref.Params {
			merged[k] = v
		}

		// Render template vars inside param values so the subject line can
		// carry the alert count.
		for k, v := range merged {
			rendered, err := Render(v, data)
			if err != nil {
				return nil, fmt.Errorf("rendering param %q for %s: %w", k, ref.Service, err)
			}
			merged[k] = rendered
		}

		targets = append(targets, Target{
			ServiceName: ref.Service,
			URL:         svc.URL,
			Message:     msg,
			Params:      merged,
		})
	}

	return targets, nil
}

// Send delivers a notification to a single target via Shoutrrr.
func Send(t Target) error {
	sender, err := shoutrrr.CreateSender(t.URL)
	if err != nil {
		return fmt.Errorf("creating sender for %s: %w", t.ServiceName, err)
	}

	params := types.Params(t.Params)
	errs := sender.Send(t.Message, &params)
	for _, e := range errs {
		if e != nil {
			return fmt.Errorf("sending to %s: %w", t.ServiceName, e)
		}
	}

	return nil
}

// Validate checks that a target's URL names a service Shoutrrr can build a
// sender for, without sending anything.
func Validate(t Target) error {
	if _, err := shoutrrr.CreateSender(t.URL); err != nil {
		return fmt.Errorf("invalid url for %s: %w", t.ServiceName, err)
	}
	return nil
}
