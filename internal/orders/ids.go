package orders

import (
	"math/rand/v2"
	"strings"
	"time"
)

const orderIDCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// turkishReplacer transliterates Turkish letters before slugging, so
// "Şule Çağlar" becomes "sule-caglar" rather than losing characters.
var turkishReplacer = strings.NewReplacer(
	"ş", "s", "Ş", "s",
	"ğ", "g", "Ğ", "g",
	"ı", "i", "İ", "i",
	"ö", "o", "Ö", "o",
	"ü", "u", "Ü", "u",
	"ç", "c", "Ç", "c",
)

// NewOrderID builds an order id of the form YYYYMMDD-HHmm_RRRRRR from
// the creation time plus a 6-character random suffix. Uniqueness is
// probabilistic, not guaranteed.
func NewOrderID(now time.Time) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = orderIDCharset[rand.IntN(len(orderIDCharset))]
	}
	return now.Format("20060102-1504") + "_" + string(suffix)
}

// CustomerSlug normalizes a customer name into a URL-safe slug:
// Turkish letters transliterated, lowercased, every non-alphanumeric
// run collapsed to a single dash, no leading or trailing dashes.
func CustomerSlug(name string) string {
	if name == "" {
		return "unknown"
	}

	s := strings.ToLower(turkishReplacer.Replace(name))

	var b strings.Builder
	pendingDash := false
	for _, r := range s {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		} else {
			pendingDash = true
		}
	}

	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}

// FolderName combines the order id and customer slug into the order's
// folder name: <orderId>__<customerSlug>.
func FolderName(orderID, customerSlug string) string {
	return orderID + "__" + customerSlug
}

// FolderOrderID extracts the order id segment of a folder name. Order
// lookup compares this segment exactly, so one order id being a prefix
// of another can never cause a false match.
func FolderOrderID(folderName string) string {
	id, _, _ := strings.Cut(folderName, "__")
	return id
}
