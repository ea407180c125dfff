package identity

import (
	"net/url"
	"strconv"
)

// OrderContext locates the physical ordering context for one submission
// attempt. QRID and TableNumber are empty when not supplied.
type OrderContext struct {
	BusinessID  int64
	QRID        string
	TableNumber string
}

// Historical key spellings accepted for each query parameter. Older QR
// codes in the field still encode the early variants.
var (
	businessKeys = []string{"businessId", "business_id", "bid"}
	qrKeys       = []string{"qr", "qrId", "qr_id", "qrid"}
	tableKeys    = []string{"table", "tableNo", "table_no", "tableNumber", "table_number"}
)

// Resolve derives the order context from the navigational query string.
// Explicit query parameters win; fallbackBusinessID covers the rest
// (callers pass the persisted business id when one exists, otherwise the
// configured default). Resolve is pure: no storage or network access.
func Resolve(query url.Values, fallbackBusinessID int64) OrderContext {
	ctx := OrderContext{BusinessID: fallbackBusinessID}
	if ctx.BusinessID <= 0 {
		ctx.BusinessID = 1
	}

	if raw := firstValue(query, businessKeys); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			ctx.BusinessID = id
		}
	}

	ctx.QRID = firstValue(query, qrKeys)

	if raw := firstValue(query, tableKeys); raw != "" {
		ctx.TableNumber = canonicalTable(raw)
	}

	return ctx
}

func firstValue(query url.Values, keys []string) string {
	for _, k := range keys {
		if v := query.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// canonicalTable re-encodes all-digit table numbers as canonical base-10,
// stripping leading zeros ("007" -> "7"). Non-numeric labels pass through.
func canonicalTable(raw string) string {
	for _, r := range raw {
		if r < '0' || r > '9' {
			return raw
		}
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return raw
	}
	return strconv.FormatUint(n, 10)
}
