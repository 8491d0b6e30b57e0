// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

package api

// Error codes returned in the APIError.Code field.
const (
	ErrCodeInvalidRequest       = "VALIDATION_ERROR"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_ERROR"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeStoreFailure         = "STORE_ERROR"
	ErrCodeRecommendation       = "RECOMMENDATION_ERROR"
	ErrCodeLiveCheck            = "LIVE_CHECK_ERROR"
	ErrCodeInternal             = "INTERNAL_ERROR"
)
