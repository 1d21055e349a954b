package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	apperrors "options-income/internal/errors"
)

var validate = validator.New()

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return translate(err)
	}
	return c.Trading.checkSpreads()
}

// MinSpreadWidth is the smallest usable spread width. Long legs are matched
// to within half a point of the target strike, so narrower widths could
// only ever land on the short strike.
const MinSpreadWidth = 0.5

// Validate checks trading settings for invalid values.
func (s *TradingSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return translate(err)
	}
	return s.checkSpreads()
}

func (s *TradingSettings) checkSpreads() error {
	var errs []error
	for _, name := range []string{"put_credit_spread", "call_credit_spread"} {
		st := s.Strategies.byName(name)
		if st.Enabled && st.SpreadWidth <= MinSpreadWidth {
			errs = append(errs, apperrors.NewValidationError(name+".spread_width", st.SpreadWidth,
				fmt.Sprintf("must be greater than %.1f", MinSpreadWidth)))
		}
	}
	if len(errs) > 0 {
		return apperrors.Join(append([]error{apperrors.ErrConfigInvalid}, errs...)...)
	}
	return nil
}

func (s *StrategySettingsSet) byName(name string) StrategySettings {
	switch name {
	case "cash_secured_put":
		return s.CashSecuredPut
	case "covered_call":
		return s.CoveredCall
	case "put_credit_spread":
		return s.PutCreditSpread
	default:
		return s.CallCreditSpread
	}
}

func translate(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Wrap(err, "validating")
	}

	errs := make([]error, 0, len(verrs)+1)
	errs = append(errs, apperrors.ErrConfigInvalid)
	for _, e := range verrs {
		msg := "failed " + e.Tag()
		if e.Param() != "" {
			msg = fmt.Sprintf("failed %s=%s", e.Tag(), e.Param())
		}
		errs = append(errs, apperrors.NewValidationError(e.Namespace(), e.Value(), msg))
	}
	return apperrors.Join(errs...)
}
