// internal/models/category.go
package models

import "strings"

type DataCategory string

const (
	DataCategoryLocationHistory     DataCategory = "location_history"
	DataCategoryAppUsage            DataCategory = "app_usage"
	DataCategoryPurchaseHistory     DataCategory = "purchase_history"
	DataCategoryHealthData          DataCategory = "health_data"
	DataCategorySocialMediaActivity DataCategory = "social_media_activity"
	DataCategorySearchHistory       DataCategory = "search_history"
	DataCategoryFinancialData       DataCategory = "financial_data"
	DataCategoryCommunicationData   DataCategory = "communication_data"
	DataCategoryCustom              DataCategory = "custom"
)

const (
	customLabelPrefix    = "custom:"
	MaxCustomLabelLength = 64
)

// IsPermissionCategory reports whether c belongs to the permission ledger vocabulary.
func (c DataCategory) IsPermissionCategory() bool {
	switch c {
	case DataCategoryLocationHistory, DataCategoryAppUsage, DataCategoryPurchaseHistory,
		DataCategoryHealthData, DataCategorySocialMediaActivity, DataCategorySearchHistory,
		DataCategoryFinancialData, DataCategoryCommunicationData, DataCategoryCustom:
		return true
	}
	return false
}

// IsListable reports whether c can back a marketplace listing. Financial and
// communication data can be granted but not listed.
func (c DataCategory) IsListable() bool {
	switch c {
	case DataCategoryLocationHistory, DataCategoryAppUsage, DataCategoryPurchaseHistory,
		DataCategoryHealthData, DataCategorySocialMediaActivity, DataCategorySearchHistory,
		DataCategoryCustom:
		return true
	}
	return false
}

// ParseCategoryRef splits a category reference such as "health_data" or
// "custom:genomics" into its category and label.
func ParseCategoryRef(ref string) (DataCategory, string, bool) {
	if strings.HasPrefix(ref, customLabelPrefix) {
		label := strings.TrimPrefix(ref, customLabelPrefix)
		if label == "" || len(label) > MaxCustomLabelLength {
			return "", "", false
		}
		return DataCategoryCustom, label, true
	}

	category := DataCategory(ref)
	if !category.IsPermissionCategory() {
		return "", "", false
	}
	return category, "", true
}

// CategoryRef renders a category and optional custom label back into a reference.
func CategoryRef(category DataCategory, label string) string {
	if category == DataCategoryCustom && label != "" {
		return customLabelPrefix + label
	}
	return string(category)
}

// GrantEntries lists the grant entries that authorize access to a category.
// A bare "custom" entry covers every custom label; "custom:<label>" covers only that label.
func GrantEntries(category DataCategory, label string) []string {
	if category == DataCategoryCustom && label != "" {
		return []string{string(DataCategoryCustom), customLabelPrefix + label}
	}
	return []string{string(category)}
}
