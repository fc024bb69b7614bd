// Package ranking computes engagement-over-age discovery rankings and runs
// the scheduled feed and KV maintenance passes.
package ranking

import (
	"math"
	"time"
)

// Params are the ranking constants: weighted engagement decayed by age.
type Params struct {
	Exp        float64
	BaseOffset float64
	LikeW      float64
	ReplyW     float64
	RepostW    float64
}

// DefaultParams returns the tuned production constants.
func DefaultParams() Params {
	return Params{Exp: 1.3, BaseOffset: 4, LikeW: 1, ReplyW: 10, RepostW: 3}
}

// Score computes weighted engagement over decayed age. Newer posts with
// equal counts always score higher; equal-age posts with more engagement
// score higher.
func (p Params) Score(likes, replies, reposts int, age time.Duration) float64 {
	hours := age.Hours()
	if hours < 0 {
		hours = 0
	}
	engagement := float64(likes)*p.LikeW + float64(replies)*p.ReplyW + float64(reposts)*p.RepostW
	return engagement / math.Pow(hours+p.BaseOffset, p.Exp)
}
