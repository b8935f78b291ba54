// Package taxonomy maps application-level actions on the agency site onto
// the advertising platform's fixed event vocabulary. One engine serves both
// compliance modes; the difference is a policy over custom_data keys chosen
// at configuration time.
package taxonomy

// Policy filters custom_data before transmission.
type Policy interface {
	Filter(customData map[string]any) map[string]any
}

// UnrestrictedPolicy passes custom data through unchanged.
type UnrestrictedPolicy struct{}

// Filter returns the input unchanged.
func (UnrestrictedPolicy) Filter(customData map[string]any) map[string]any {
	return customData
}

// CompliantKeys are the custom_data parameters permitted when the
// advertising platform's restricted data processing mode is active.
var CompliantKeys = []string{
	"content_name",
	"content_category",
	"content_type",
	"content_ids",
	"value",
	"currency",
	"status",
}

// AllowListPolicy keeps only allow-listed custom_data keys.
type AllowListPolicy struct {
	allowed map[string]struct{}
}

// NewAllowListPolicy creates a policy permitting only the given keys.
func NewAllowListPolicy(keys ...string) AllowListPolicy {
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		allowed[k] = struct{}{}
	}
	return AllowListPolicy{allowed: allowed}
}

// NewCompliantPolicy creates the standard compliance-mode allow list.
func NewCompliantPolicy() AllowListPolicy {
	return NewAllowListPolicy(CompliantKeys...)
}

// Filter returns a copy of customData containing only allow-listed keys.
// Nil input stays nil.
func (p AllowListPolicy) Filter(customData map[string]any) map[string]any {
	if customData == nil {
		return nil
	}
	filtered := make(map[string]any, len(customData))
	for k, v := range customData {
		if _, ok := p.allowed[k]; ok {
			filtered[k] = v
		}
	}
	return filtered
}
