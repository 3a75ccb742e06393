package ledger

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bondline/pkg/domain"
)

// EndSpan records err on span and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// IdentityAttr is the span attribute for an identity.
func IdentityAttr(id domain.IdentityID) attribute.KeyValue {
	return attribute.String("ledger.identity_id", id.String())
}

// AmountAttr is the span attribute for an amount.
func AmountAttr(a domain.Amount) attribute.KeyValue {
	return attribute.String("ledger.amount", a.String())
}

// ClaimAttr is the span attribute for a claim.
func ClaimAttr(id domain.ClaimID) attribute.KeyValue {
	return attribute.String("ledger.claim_id", id.String())
}

// IdentityKey is the serialization key for all mutations touching id.
func IdentityKey(id domain.IdentityID) string {
	return "identity:" + id.String()
}
