package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuizLearnerViewKey returns the cache key for the published, learner-facing view of a quiz.
func (r *CacheKeyStruct) QuizLearnerViewKey(quizID int64) string {
	return fmt.Sprintf("quiz:%d:learner_view", quizID)
}

// QuizLearnerViewGenKey returns the key of the counter bumped on every learner view invalidation.
func (r *CacheKeyStruct) QuizLearnerViewGenKey(quizID int64) string {
	return fmt.Sprintf("quiz:%d:learner_view:gen", quizID)
}

// QuizMonitorChannel returns the Redis PubSub channel name for a quiz's attempt feed.
func (r *CacheKeyStruct) QuizMonitorChannel(quizID int64) string {
	return fmt.Sprintf("quiz:%d:monitor", quizID)
}

var CacheKey = NewCacheKeyStruct()
