// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
)

// ErrInvalidAmount is returned for amounts that are not plain
// non-negative decimals such as "12" or "0.25".
var ErrInvalidAmount = errors.New("invalid amount")

var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

func parseAmount(amount string) (*big.Rat, error) {
	if !decimalPattern.MatchString(amount) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	value, ok := new(big.Rat).SetString(amount)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return value, nil
}

// ValidateAmount accepts a non-negative decimal amount such as "0",
// "12" or "0.25". Signs, exponents and separators are rejected.
func ValidateAmount(amount string) error {
	_, err := parseAmount(amount)
	return err
}

// ValidateDepositAmount accepts a positive decimal amount.
func ValidateDepositAmount(amount string) error {
	value, err := parseAmount(amount)
	if err != nil {
		return err
	}
	if value.Sign() <= 0 {
		return fmt.Errorf("%w: %q must be positive", ErrInvalidAmount, amount)
	}
	return nil
}
