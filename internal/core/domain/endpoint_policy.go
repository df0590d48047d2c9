package domain

import (
	"fmt"
	"strings"
)

// UnregisteredEndpointPolicy decides requests for which no permission data exists:
// a (path, method) without an endpoint row, or a registered endpoint with an empty
// required set.
type UnregisteredEndpointPolicy string

const (
	// UnregisteredEndpointAllow lets such requests through (fail-open).
	UnregisteredEndpointAllow UnregisteredEndpointPolicy = "allow"
	// UnregisteredEndpointDeny rejects such requests (fail-closed).
	UnregisteredEndpointDeny UnregisteredEndpointPolicy = "deny"
)

// ParseUnregisteredEndpointPolicy normalises textual input. Unknown or empty
// values are rejected so the caller has to pick a policy explicitly.
func ParseUnregisteredEndpointPolicy(value string) (UnregisteredEndpointPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(UnregisteredEndpointAllow):
		return UnregisteredEndpointAllow, nil
	case string(UnregisteredEndpointDeny):
		return UnregisteredEndpointDeny, nil
	default:
		return "", fmt.Errorf("unknown unregistered endpoint policy %q (want allow or deny)", value)
	}
}

// Allows reports whether the policy lets requests without permission data through.
func (p UnregisteredEndpointPolicy) Allows() bool {
	return p == UnregisteredEndpointAllow
}

// DecisionReason explains an authorization decision.
type DecisionReason string

const (
	DecisionReasonUnregistered   DecisionReason = "unregistered_endpoint"
	DecisionReasonNoRequirements DecisionReason = "no_requirements"
	DecisionReasonSatisfied      DecisionReason = "satisfied"
	DecisionReasonMissing        DecisionReason = "missing_permissions"
)

// Decision is the outcome of an authorization check. Missing lists the
// permission names the caller lacked; it is meant for logs, not responses.
type Decision struct {
	Allowed bool
	Reason  DecisionReason
	Missing []string
}

// Outcome renders the decision as allow or deny.
func (d Decision) Outcome() string {
	if d.Allowed {
		return "allow"
	}
	return "deny"
}
