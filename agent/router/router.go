package router

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/supportops/triage-pipeline/agent/contract"
)

// customerIDPattern matches "customer id 42" / "ID: 42" style mentions; the
// first digit run after the keyword is taken as the id.
var customerIDPattern = regexp.MustCompile(`\b(?:customer\s+id|id)[^\d]*(\d+)\b`)

var urgencyPhrases = []string{
	"refund immediately",
	"charged twice",
	"urgent",
	"immediately",
}

type intentRule struct {
	intent  contractx.Intent
	matches func(q string) bool
}

// intentRules is evaluated top to bottom; the first match wins. All predicates
// receive the lower-cased request text.
var intentRules = []intentRule{
	{
		intent: contractx.IntentActiveWithOpenTickets,
		matches: func(q string) bool {
			if strings.Contains(q, "active customers") && strings.Contains(q, "open tickets") {
				return true
			}
			return strings.Contains(q, "high priority tickets")
		},
	},
	{
		intent: contractx.IntentUpdateAndHistory,
		matches: func(q string) bool {
			return strings.Contains(q, "update my email") && strings.Contains(q, "ticket history")
		},
	},
	{
		intent: contractx.IntentBillingIssue,
		matches: func(q string) bool {
			return strings.Contains(q, "cancel my subscription") && strings.Contains(q, "billing")
		},
	},
	{
		intent: contractx.IntentBillingIssue,
		matches: func(q string) bool {
			return strings.Contains(q, "charged twice") ||
				strings.Contains(q, "refund") ||
				strings.Contains(q, "billing issue")
		},
	},
	{
		intent: contractx.IntentUpgrade,
		matches: func(q string) bool {
			return strings.Contains(q, "upgrade") || strings.Contains(q, "upgrading my account")
		},
	},
	{
		intent: contractx.IntentSimpleLookup,
		matches: func(q string) bool {
			return strings.Contains(q, "customer id") && strings.Contains(q, "help with my account")
		},
	},
}

// Decision is the routing outcome for one request.
type Decision struct {
	Intent     contractx.Intent
	Urgency    contractx.Urgency
	Route      contractx.Route
	CustomerID *int64
}

// Router classifies a request with the rule cascade and falls back to the
// external classifier when no rule matches. Classification never fails: any
// fallback error degrades to general_support.
type Router struct {
	fallback contractx.Classifier
}

func New(fallback contractx.Classifier) *Router {
	if fallback == nil {
		fallback = noopClassifier{}
	}
	return &Router{fallback: fallback}
}

// Classify maps the latest user text and any previously known customer id to
// a routing decision.
func (r *Router) Classify(ctx context.Context, text string, previous *int64) Decision {
	q := strings.ToLower(text)

	intent, ok := matchIntent(q)
	if !ok {
		intent = r.fallbackIntent(ctx, text)
	}

	return Decision{
		Intent:     intent,
		Urgency:    DetectUrgency(text),
		Route:      RouteFor(intent),
		CustomerID: ExtractCustomerID(text, previous),
	}
}

func (r *Router) fallbackIntent(ctx context.Context, text string) contractx.Intent {
	res, err := r.fallback.Classify(ctx, text)
	if err != nil {
		log.Debug().Err(err).Msg("fallback classifier failed, using general_support")
		return contractx.IntentGeneralSupport
	}
	intent := contractx.Intent(strings.TrimSpace(string(res.Intent)))
	if intent == "" {
		return contractx.IntentGeneralSupport
	}
	return intent
}

func matchIntent(q string) (contractx.Intent, bool) {
	for _, rule := range intentRules {
		if rule.matches(q) {
			return rule.intent, true
		}
	}
	return "", false
}

// ExtractCustomerID scans the text for an id mention and returns the first
// digit run as the customer id. Without a match the previously known id is
// kept, which may be nil.
func ExtractCustomerID(text string, previous *int64) *int64 {
	m := customerIDPattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return previous
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return previous
	}
	return &id
}

// DetectUrgency scans the raw text for escalation phrases. It is independent
// of which path produced the intent.
func DetectUrgency(text string) contractx.Urgency {
	q := strings.ToLower(text)
	for _, phrase := range urgencyPhrases {
		if strings.Contains(q, phrase) {
			return contractx.UrgencyHigh
		}
	}
	return contractx.UrgencyLow
}

// RouteFor derives the stage-selection route from the intent. Unknown intents
// fall back to support_only.
func RouteFor(intent contractx.Intent) contractx.Route {
	switch intent {
	case contractx.IntentSimpleLookup,
		contractx.IntentUpgrade,
		contractx.IntentBillingIssue,
		contractx.IntentUpdateAndHistory,
		contractx.IntentActiveWithOpenTickets:
		return contractx.RouteDataThenSupport
	default:
		return contractx.RouteSupportOnly
	}
}

type noopClassifier struct{}

func (noopClassifier) Classify(context.Context, string) (contractx.ClassifierResult, error) {
	return contractx.ClassifierResult{Intent: contractx.IntentGeneralSupport, Urgency: contractx.UrgencyLow}, nil
}
