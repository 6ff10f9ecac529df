package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateSessionKey returns the cache key for a candidate's login session
func (r *CacheKeyStruct) CandidateSessionKey(candidateID int) string {
	return fmt.Sprintf("login:candidate:%d", candidateID)
}

// AttemptStateKey returns the cache key for an attempt's runtime engine state
func (r *CacheKeyStruct) AttemptStateKey(attemptID int) string {
	return fmt.Sprintf("attempt:%d:state", attemptID)
}

// AttemptStartKey returns the cache key for an attempt's start timestamp
func (r *CacheKeyStruct) AttemptStartKey(attemptID int) string {
	return fmt.Sprintf("attempt:%d:started_at", attemptID)
}

// AttemptMonitorChannel returns the Redis PubSub channel name for the live
// proctoring monitor of one attempt
func (r *CacheKeyStruct) AttemptMonitorChannel(attemptID int) string {
	return fmt.Sprintf("attempt:%d:monitor", attemptID)
}

var CacheKey = NewCacheKeyStruct()
