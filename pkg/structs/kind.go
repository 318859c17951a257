package structs

import (
	"strings"
)

// Kind is the type of oracle query a job asks for.
//
// Each kind has a matching handler registered on the worker side; the kind
// also decides which Params fields a job must carry.
type Kind string

const (
	// KindRandom draws a value uniformly from [min, max]
	KindRandom Kind = "random"

	// KindPrice returns a quote for a symbol pair
	KindPrice Kind = "price"

	// KindWebhook fires an outbound trigger request
	KindWebhook Kind = "webhook"
)

func ToKind(s string) Kind {
	switch strings.ToLower(s) {
	case "random":
		return KindRandom
	case "price":
		return KindPrice
	case "webhook":
		return KindWebhook
	default:
		return ""
	}
}
