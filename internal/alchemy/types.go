package alchemy

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/6529-Collections/flipscan/pkg/flips/models"
)

type salesResponse struct {
	NftSales []nftSale `json:"nftSales"`
	PageKey  string    `json:"pageKey"`
}

type nftSale struct {
	ContractAddress string     `json:"contractAddress"`
	TokenID         flexString `json:"tokenId"`
	BlockNumber     flexUint64 `json:"blockNumber"`
	BuyerAddress    string     `json:"buyerAddress"`
	SellerAddress   string     `json:"sellerAddress"`
	TransactionHash string     `json:"transactionHash"`
	Marketplace     string     `json:"marketplace"`
}

// toSaleEvent converts an API item, reporting false for items that lack a
// contract, token id or block number.
func (s nftSale) toSaleEvent() (models.SaleEvent, bool) {
	if s.ContractAddress == "" || s.TokenID == "" || !s.BlockNumber.valid {
		return models.SaleEvent{}, false
	}
	ev := models.SaleEvent{
		Contract:    s.ContractAddress,
		TokenID:     string(s.TokenID),
		BlockNumber: s.BlockNumber.value,
		Buyer:       s.BuyerAddress,
		Seller:      s.SellerAddress,
		TxHash:      s.TransactionHash,
		Marketplace: s.Marketplace,
	}
	return *models.Normalize(&ev), true
}

// flexString accepts a JSON string or number. Anything else decodes to "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	*f = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*f = flexString(strings.TrimSpace(s))
		}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
	}
	return nil
}

// flexUint64 accepts a JSON number, a decimal string or a 0x-prefixed hex
// string. Values that do not parse leave valid unset.
type flexUint64 struct {
	value uint64
	valid bool
}

func (f *flexUint64) UnmarshalJSON(data []byte) error {
	*f = flexUint64{}
	raw := string(bytes.TrimSpace(data))
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
	}
	raw = strings.TrimSpace(raw)
	base := 10
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		raw, base = raw[2:], 16
	}
	v, err := strconv.ParseUint(raw, base, 64)
	if err != nil {
		return nil
	}
	*f = flexUint64{value: v, valid: true}
	return nil
}
