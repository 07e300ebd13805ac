package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when the annotator throttles requests
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrAnnotatorUnavailable is returned when the annotator cannot be reached
	// or is not ready to segment text
	ErrAnnotatorUnavailable = errors.New("annotator unavailable")

	// ErrAnnotatorResponse is returned when the annotator answers with a
	// payload that cannot be decoded
	ErrAnnotatorResponse = errors.New("malformed annotator response")

	// ErrLexiconInvalid is returned when a lexicon file cannot be used
	ErrLexiconInvalid = errors.New("invalid lexicon")
)
