package models

import "math"

type FlipRecord struct {
	Contract    string `json:"contract"`
	TokenID     string `json:"tokenId"`
	Address     string `json:"address"`
	HoldSeconds int64  `json:"holdSeconds"`
	BuyBlock    uint64 `json:"buyBlock"`
	SellBlock   uint64 `json:"sellBlock"`
}

// HoldHours is the hold time in hours rounded to two decimals.
func (f FlipRecord) HoldHours() float64 {
	return math.Round(float64(f.HoldSeconds)/3600*100) / 100
}
