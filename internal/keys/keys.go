// Package keys encodes and decodes the composite keys of the sales data
// collection. Every record lives in one collection and is addressed by a
// (PK, SK) pair; a second index over (IPK, ISK) swaps the grouping so the
// same record is reachable both by its primary grouping and by date.
package keys

import (
	"fmt"
	"strings"
)

// Delimiter separates the key prefix from the identity part. Identities
// containing it are rejected at encode time so decoding stays unambiguous.
const Delimiter = "#"

const (
	storePrefix   = "STORE" + Delimiter
	datePrefix    = "DATE" + Delimiter
	uploadPrefix  = "UPLOAD" + Delimiter + "STORE" + Delimiter
	productPrefix = "PRODUCT" + Delimiter
	insightPrefix = "INSIGHT" + Delimiter
	companySK     = "SUMMARY" + Delimiter + "COMPANY"
)

// Item holds the storage keys of a record. PK/SK address the record in the
// primary index; IPK/ISK, when set, register it in the secondary index.
type Item struct {
	PK  string `bson:"pk" json:"pk"`
	SK  string `bson:"sk" json:"sk"`
	IPK string `bson:"ipk,omitempty" json:"ipk,omitempty"`
	ISK string `bson:"isk,omitempty" json:"isk,omitempty"`
}

func validateID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("keys: empty %s", kind)
	}
	if strings.Contains(id, Delimiter) {
		return fmt.Errorf("keys: %s %q contains reserved delimiter %q", kind, id, Delimiter)
	}
	return nil
}

// StoreSummary returns the keys of a store's daily summary.
// Primary grouping is the store; the secondary index fans out by date.
func StoreSummary(storeID, date string) (Item, error) {
	if err := validateID("store id", storeID); err != nil {
		return Item{}, err
	}
	if err := validateID("date", date); err != nil {
		return Item{}, err
	}
	return Item{
		PK:  storePrefix + storeID,
		SK:  datePrefix + date,
		IPK: datePrefix + date,
		ISK: storePrefix + storeID,
	}, nil
}

// UploadTracking returns the keys of an upload tracking record. Tracking
// records are only ever read by date, so they carry no index keys.
func UploadTracking(date, storeID string) (Item, error) {
	if err := validateID("date", date); err != nil {
		return Item{}, err
	}
	if err := validateID("store id", storeID); err != nil {
		return Item{}, err
	}
	return Item{
		PK: datePrefix + date,
		SK: uploadPrefix + storeID,
	}, nil
}

// CompanySummary returns the keys of the company-wide daily summary.
func CompanySummary(date string) (Item, error) {
	if err := validateID("date", date); err != nil {
		return Item{}, err
	}
	return Item{
		PK: datePrefix + date,
		SK: companySK,
	}, nil
}

// ProductSummary returns the keys of a product's daily summary.
// Primary grouping is the date; the secondary index gives per-product history.
func ProductSummary(date, sku string) (Item, error) {
	if err := validateID("date", date); err != nil {
		return Item{}, err
	}
	if err := validateID("sku", sku); err != nil {
		return Item{}, err
	}
	return Item{
		PK:  datePrefix + date,
		SK:  productPrefix + sku,
		IPK: productPrefix + sku,
		ISK: datePrefix + date,
	}, nil
}

// Insight returns the keys of a persisted insight. The SK carries the
// insight type uppercased plus a short random id; the secondary index groups
// insights of one type across dates.
func Insight(date, insightType, id string) (Item, error) {
	if err := validateID("date", date); err != nil {
		return Item{}, err
	}
	if err := validateID("insight type", insightType); err != nil {
		return Item{}, err
	}
	if err := validateID("insight id", id); err != nil {
		return Item{}, err
	}
	return Item{
		PK:  datePrefix + date,
		SK:  insightPrefix + strings.ToUpper(insightType) + Delimiter + id,
		IPK: insightPrefix + strings.ToLower(insightType),
		ISK: datePrefix + date,
	}, nil
}

// DatePK returns the primary key shared by all records grouped under a date.
func DatePK(date string) string { return datePrefix + date }

// DateIPK returns the secondary-index key that fans out a date across stores.
func DateIPK(date string) string { return datePrefix + date }

// ProductIPK returns the secondary-index key of a product's history.
func ProductIPK(sku string) string { return productPrefix + sku }

// StorePK returns the primary key grouping one store's summaries.
func StorePK(storeID string) string { return storePrefix + storeID }

// UploadSKPrefix is the SK prefix selecting upload tracking records of a date.
func UploadSKPrefix() string { return uploadPrefix }

// ProductSKPrefix is the SK prefix selecting product summaries of a date.
func ProductSKPrefix() string { return productPrefix }

// InsightSKPrefix is the SK prefix selecting insights of a date.
func InsightSKPrefix() string { return insightPrefix }

// CompanySK is the sort key of the company daily summary.
func CompanySK() string { return companySK }

// DateSKPrefix is the SK prefix selecting daily summaries under a store PK.
func DateSKPrefix() string { return datePrefix }

func stripPrefix(key, prefix, kind string) (string, error) {
	if !strings.HasPrefix(key, prefix) {
		return "", fmt.Errorf("keys: %q is not a %s key", key, kind)
	}
	rest := strings.TrimPrefix(key, prefix)
	if rest == "" || strings.Contains(rest, Delimiter) {
		return "", fmt.Errorf("keys: malformed %s key %q", kind, key)
	}
	return rest, nil
}

// StoreID extracts the store id from a STORE# key.
func StoreID(key string) (string, error) {
	return stripPrefix(key, storePrefix, "store")
}

// Date extracts the date from a DATE# key.
func Date(key string) (string, error) {
	return stripPrefix(key, datePrefix, "date")
}

// UploadStoreID extracts the store id from an UPLOAD#STORE# sort key.
func UploadStoreID(key string) (string, error) {
	return stripPrefix(key, uploadPrefix, "upload tracking")
}

// ProductSKU extracts the sku from a PRODUCT# key.
func ProductSKU(key string) (string, error) {
	return stripPrefix(key, productPrefix, "product")
}

// InsightParts extracts the type and id from an INSIGHT#TYPE#id sort key.
func InsightParts(key string) (insightType, id string, err error) {
	if !strings.HasPrefix(key, insightPrefix) {
		return "", "", fmt.Errorf("keys: %q is not an insight key", key)
	}
	rest := strings.TrimPrefix(key, insightPrefix)
	parts := strings.SplitN(rest, Delimiter, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("keys: malformed insight key %q", key)
	}
	return strings.ToLower(parts[0]), parts[1], nil
}
