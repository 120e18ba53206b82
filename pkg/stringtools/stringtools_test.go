package stringtools

import (
	"testing"
)

type shortAddressTest struct {
	arg, want string
}

var shortAddressTests = []shortAddressTest{
	{"0x33fd426905f149f8376e227d0c9d3340aad17af1", "0x33fd42…"},
	{"0x1234", "0x1234"},
	{"0x123456", "0x123456"},
	{"", ""},
	{"üõäöüõäöü", "üõäöüõäö…"},
}

func TestShortAddress(t *testing.T) {
	for _, test := range shortAddressTests {
		got := ShortAddress(test.arg)
		if test.want != got {
			t.Fatalf(`Result of ShortAddress("%v") is %v, but wanted it to be %v`, test.arg, got, test.want)
		}
	}
}
