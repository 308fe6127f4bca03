package marketplace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sellerops/backend/internal/domain/integration"
)

// Traversal guards against pathological inputs. Marketplace payloads are
// untrusted; depth and node counts are bounded so a hostile response cannot
// exhaust the stack or the heap.
const (
	maxTraversalDepth = 32
	maxTraversalNodes = 100_000
)

// CollectObjects walks an arbitrary JSON value and returns every object
// containing at least one of the hint keys, in document order, regardless of
// nesting depth or the enclosing array/object wrapping. Marketplaces
// routinely change or inconsistently apply the envelope, so the envelope is
// never trusted. A matched object is treated as a leaf record: its children
// are not searched, so a record nesting another identifier-bearing object
// yields one record, not two.
func CollectObjects(root any, keyHints ...string) []map[string]any {
	type node struct {
		value any
		depth int
	}

	var matched []map[string]any
	stack := []node{{value: root, depth: 0}}
	visited := 0

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		visited++
		if visited > maxTraversalNodes || n.depth > maxTraversalDepth {
			continue
		}

		switch v := n.value.(type) {
		case map[string]any:
			if hasAnyKey(v, keyHints) {
				matched = append(matched, v)
				continue
			}
			// Push children in reverse key order so pops preserve document
			// order as closely as Go maps allow; determinism matters for
			// first-occurrence dedupe.
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for i := len(keys) - 1; i >= 0; i-- {
				stack = append(stack, node{value: v[keys[i]], depth: n.depth + 1})
			}
		case []any:
			for i := len(v) - 1; i >= 0; i-- {
				stack = append(stack, node{value: v[i], depth: n.depth + 1})
			}
		}
	}
	return matched
}

func hasAnyKey(obj map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

// pick returns the first non-empty value among the candidate paths. A path
// is a dot-separated traversal into nested objects ("receiver.name").
func pick(obj map[string]any, paths ...string) any {
	for _, path := range paths {
		if v, ok := lookupPath(obj, path); ok && !isEmptyValue(v) {
			return v
		}
	}
	return nil
}

func lookupPath(obj map[string]any, path string) (any, bool) {
	current := any(obj)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

// pickString reads the first non-empty candidate as a string.
func pickString(obj map[string]any, paths ...string) string {
	switch v := pick(obj, paths...).(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// pickDecimal reads the first non-empty candidate as a decimal amount.
// Marketplace money fields appear as plain numbers, numeric strings, or a
// decomposed {units, nanos} object; all three normalize to one value.
func pickDecimal(obj map[string]any, paths ...string) decimal.Decimal {
	return toDecimal(pick(obj, paths...))
}

func toDecimal(v any) decimal.Decimal {
	switch t := v.(type) {
	case nil:
		return decimal.Zero
	case float64:
		return decimal.NewFromFloat(t)
	case json.Number:
		if d, err := decimal.NewFromString(t.String()); err == nil {
			return d
		}
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(t)); err == nil {
			return d
		}
	case map[string]any:
		units := toDecimal(t["units"])
		nanos := toDecimal(t["nanos"])
		return units.Add(nanos.Div(decimal.NewFromInt(1_000_000_000)))
	}
	return decimal.Zero
}

// pickInt reads the first non-empty candidate as an int.
func pickInt(obj map[string]any, paths ...string) int {
	return int(toDecimal(pick(obj, paths...)).IntPart())
}

// pickTime reads the first non-empty candidate as a timestamp. Strings try
// the layouts marketplaces actually emit; numbers are unix seconds, or
// milliseconds when implausibly large for seconds.
func pickTime(obj map[string]any, paths ...string) time.Time {
	return toTime(pick(obj, paths...))
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func toTime(v any) time.Time {
	switch t := v.(type) {
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return parsed
			}
		}
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return unixFlexible(n)
		}
	case float64:
		return unixFlexible(int64(t))
	}
	return time.Time{}
}

func unixFlexible(n int64) time.Time {
	if n <= 0 {
		return time.Time{}
	}
	if n > 1_000_000_000_000 { // milliseconds
		return time.Unix(n/1000, (n%1000)*int64(time.Millisecond))
	}
	return time.Unix(n, 0)
}

// pickBool reads the first non-empty candidate as a boolean.
func pickBool(obj map[string]any, paths ...string) bool {
	switch v := pick(obj, paths...).(type) {
	case bool:
		return v
	case string:
		lower := strings.ToLower(strings.TrimSpace(v))
		return lower == "true" || lower == "y" || lower == "yes" || lower == "answered"
	case json.Number:
		n, _ := v.Int64()
		return n > 0
	case float64:
		return v > 0
	}
	return false
}

func pickList(obj map[string]any, paths ...string) []map[string]any {
	for _, path := range paths {
		v, ok := lookupPath(obj, path)
		if !ok {
			continue
		}
		list, ok := v.([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("marketplace: parse response body: %w", err)
	}
	return root, nil
}

// ---------------------------------------------------------------------------
// Canonical record extraction
// ---------------------------------------------------------------------------

// orderKeyHints are the field names, in precedence order, that identify a
// leaf order object across the supported marketplaces.
var orderKeyHints = []string{"orderId", "productOrderId", "orderNo"}

// NormalizeOrders extracts canonical orders from an arbitrary marketplace
// response body. Records missing an identifier are dropped with a warning;
// the batch itself never fails. Duplicates keep the first occurrence.
func NormalizeOrders(market integration.MarketCode, raw []byte) ([]integration.NormalizedOrder, []string) {
	root, err := decodeJSON(raw)
	if err != nil {
		return nil, []string{err.Error()}
	}

	objects := CollectObjects(root, orderKeyHints...)

	var (
		orders   []integration.NormalizedOrder
		warnings []string
		seen     = make(map[string]bool)
	)
	for i, obj := range objects {
		externalID := pickString(obj, "orderId", "order.orderId", "productOrderId", "orderNo")
		if externalID == "" {
			warnings = append(warnings, fmt.Sprintf("order record %d dropped: no identifier", i))
			continue
		}
		if seen[externalID] {
			continue
		}
		seen[externalID] = true

		order := integration.NormalizedOrder{
			ExternalID:    externalID,
			MarketCode:    market,
			OrdererName:   pickString(obj, "orderer.name", "ordererName", "order.ordererName", "buyer.name", "member"),
			ReceiverName:  pickString(obj, "receiver.name", "shippingAddress.name", "orderer.name", "ordererName"),
			ReceiverPhone: pickString(obj, "receiver.mobile", "receiver.phone", "shippingAddress.tel1", "orderer.tel"),
			Address:       joinNonEmpty(" ", pickString(obj, "receiver.addr1", "shippingAddress.baseAddress", "receiver.fullAddress"), pickString(obj, "receiver.addr2", "shippingAddress.detailedAddress")),
			PostalCode:    pickString(obj, "receiver.postCode", "shippingAddress.zipCode", "postalCode"),
			Status:        pickString(obj, "status", "orderStatus", "productOrderStatus", "statusType"),
			TotalAmount:   pickDecimal(obj, "totalPaidAmount", "paymentAmount", "totalPaymentAmount", "payAmount", "totalPrice"),
			OrderedAt:     pickTime(obj, "orderedAt", "orderDate", "order.orderDate", "paidAt", "orderDateTime"),
		}

		for j, item := range pickList(obj, "orderItems", "productOrderList", "items", "orderItemList") {
			quantity := pickInt(item, "shippingCount", "quantity", "count")
			if quantity <= 0 {
				warnings = append(warnings, fmt.Sprintf("order %s item %d dropped: non-positive quantity", externalID, j))
				continue
			}
			order.Items = append(order.Items, integration.NormalizedOrderItem{
				ExternalItemID: pickString(item, "vendorItemId", "productOrderId", "itemId", "orderItemId"),
				ProductName:    pickString(item, "vendorItemName", "productName", "itemName"),
				OptionName:     pickString(item, "sellerProductItemName", "optionName", "option"),
				Quantity:       quantity,
				UnitPrice:      pickDecimal(item, "orderPrice", "unitPrice", "price", "salesPrice"),
			})
		}

		orders = append(orders, order)
	}
	return orders, warnings
}

// inquiryKeyHints identify a leaf CS inquiry object.
var inquiryKeyHints = []string{"inquiryId", "inquiryNo", "questionId"}

// NormalizeInquiries extracts canonical CS inquiries from an arbitrary
// marketplace response body, with the same partial-success contract as
// NormalizeOrders.
func NormalizeInquiries(market integration.MarketCode, raw []byte) ([]integration.NormalizedInquiry, []string) {
	root, err := decodeJSON(raw)
	if err != nil {
		return nil, []string{err.Error()}
	}

	objects := CollectObjects(root, inquiryKeyHints...)

	var (
		inquiries []integration.NormalizedInquiry
		warnings  []string
		seen      = make(map[string]bool)
	)
	for i, obj := range objects {
		externalID := pickString(obj, "inquiryId", "inquiryNo", "questionId")
		if externalID == "" {
			warnings = append(warnings, fmt.Sprintf("inquiry record %d dropped: no identifier", i))
			continue
		}
		if seen[externalID] {
			continue
		}
		seen[externalID] = true

		inquiries = append(inquiries, integration.NormalizedInquiry{
			ExternalID:      externalID,
			MarketCode:      market,
			OrderExternalID: pickString(obj, "orderId", "productOrderId", "orderNo"),
			Title:           pickString(obj, "title", "inquiryCategory", "categoryName"),
			Content:         pickString(obj, "content", "inquiryContent", "question"),
			AskedAt:         pickTime(obj, "inquiryAt", "createdAt", "questionDate"),
			Answered:        pickBool(obj, "answered", "isAnswered", "replied", "answerCount"),
		})
	}
	return inquiries, warnings
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
