package pipelinenode

import (
	"context"
	"fmt"

	routerx "github.com/supportops/triage-pipeline/agent/router"
	statex "github.com/supportops/triage-pipeline/agent/state"
)

// ClassifyIntent runs the routing stage: intent, urgency, customer id and
// route are set together, exactly once per run.
func ClassifyIntent(
	ctx context.Context,
	in statex.Conversation,
	rt *routerx.Router,
) (statex.Conversation, error) {
	d := rt.Classify(ctx, in.LastUserMessage(), in.CustomerID)

	out := in
	out.Intent = d.Intent
	out.Urgency = d.Urgency
	out.Route = d.Route
	out.CustomerID = d.CustomerID

	return out.WithAudit(fmt.Sprintf(
		"[router] intent=%s urgency=%s customer_id=%s route=%s",
		d.Intent, d.Urgency, formatCustomerID(d.CustomerID), d.Route,
	)), nil
}
