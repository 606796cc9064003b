package types

import "fmt"

// DecodedTransfer is the decode-envelope the transfer enricher produces for
// a native transfer, per §4.4 step 5. It deliberately carries no function
// data: NativeTransfer is a terminal decoding status.
type DecodedTransfer struct {
	DecodingStatus DecodingStatus `json:"decoding_status"`
	Summary        string         `json:"summary"`
}

// NewNativeTransferDecoded builds the human summary
// "transfer X.XXXX {CURRENCY} to 0xaaaa…bbbb" described in §4.4.
func NewNativeTransferDecoded(amountNative float64, currency, to string) DecodedTransfer {
	return DecodedTransfer{
		DecodingStatus: DecodingNativeTransfer,
		Summary:        fmt.Sprintf("transfer %.4f %s to %s", amountNative, currency, ShortAddress(to)),
	}
}

// ShortAddress renders a 0x-prefixed 40-char address as 0xAAAA…BBBB.
func ShortAddress(addr string) string {
	a := addr
	if len(a) < 10 {
		return a
	}
	return a[:6] + "…" + a[len(a)-4:]
}
