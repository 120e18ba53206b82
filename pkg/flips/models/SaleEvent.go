package models

import "strings"

type SaleEvent struct {
	Contract    string
	TokenID     string
	BlockNumber uint64
	Buyer       string
	Seller      string
	TxHash      string
	Marketplace string
}

func (s SaleEvent) Key() TokenKey {
	return NewTokenKey(s.Contract, s.TokenID)
}

// TokenKey identifies a token across case variations of its contract address.
type TokenKey struct {
	Contract string
	TokenID  string
}

func NewTokenKey(contract, tokenID string) TokenKey {
	return TokenKey{
		Contract: strings.ToLower(strings.TrimSpace(contract)),
		TokenID:  strings.TrimSpace(tokenID),
	}
}

func (k TokenKey) String() string {
	return k.Contract + "/" + k.TokenID
}

func Normalize(s *SaleEvent) *SaleEvent {
	s.Contract = strings.ToLower(s.Contract)
	s.Buyer = strings.ToLower(s.Buyer)
	s.Seller = strings.ToLower(s.Seller)
	s.TxHash = strings.ToLower(s.TxHash)
	return s
}
