package core

import (
	"fmt"
	"net/url"
	"strings"

	ce "github.com/charonlabs/charon/pkg/errors"
	"github.com/charonlabs/charon/pkg/structs"
)

const maxPairLength = 32

// validateCreateJobRequest checks the kind & kind-specific params of a
// creation request. Invalid input means no job is created at all.
func validateCreateJobRequest(cjr *structs.CreateJobRequest) error {
	switch cjr.Kind {
	case structs.KindRandom:
		return validateRandomParams(&cjr.Params)
	case structs.KindPrice:
		return validatePriceParams(&cjr.Params)
	case structs.KindWebhook:
		return validateWebhookParams(&cjr.Params)
	default:
		return fmt.Errorf("%w unknown kind %q", ce.ErrInvalidParams, cjr.Kind)
	}
}

func validateRandomParams(p *structs.Params) error {
	if p.Min >= p.Max {
		return fmt.Errorf("%w min %v must be strictly less than max %v", ce.ErrInvalidParams, p.Min, p.Max)
	}
	return nil
}

func validatePriceParams(p *structs.Params) error {
	pair := strings.TrimSpace(p.Pair)
	if pair == "" {
		return fmt.Errorf("%w price job requires a symbol pair", ce.ErrInvalidParams)
	}
	if len(pair) > maxPairLength {
		return fmt.Errorf("%w pair exceeds %d chars", ce.ErrInvalidParams, maxPairLength)
	}
	return nil
}

func validateWebhookParams(p *structs.Params) error {
	u, err := url.Parse(p.URL)
	if err != nil {
		return fmt.Errorf("%w bad webhook url: %v", ce.ErrInvalidParams, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w webhook url must be absolute http(s)", ce.ErrInvalidParams)
	}
	return nil
}
