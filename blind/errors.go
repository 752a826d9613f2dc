/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package blind

import "github.com/pkg/errors"

// Reconciliation failures. All are deterministic in the inputs; none is retryable.
// Returned errors wrap one of these with the offending label, match them with errors.Is.
var (
	ErrIneligibleClaim         = errors.New("claim is not blindable")
	ErrDuplicateClaim          = errors.New("duplicate claim detected")
	ErrMissingClaim            = errors.New("claim missing")
	ErrUnknownClaimLabel       = errors.New("claim label not found in schema")
	ErrRevocationLabelNotFound = errors.New("revocation label not found in claims")
	ErrInvalidBundle           = errors.New("invalid blind credential bundle")
)
