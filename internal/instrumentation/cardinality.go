package instrumentation

import "slices"

// LabelOther replaces label values outside a known set.
const LabelOther = "other"

// BoundedLabel returns value if it appears in allowed and LabelOther
// otherwise. Tool names come from model output, so they are bounded by the
// declared tool set before they reach a metric label.
//
// Example:
//
//	BoundedLabel("GMAIL_SEND_EMAIL", tools)   // "GMAIL_SEND_EMAIL"
//	BoundedLabel("DROP_DATABASE", tools)      // "other"
func BoundedLabel(value string, allowed []string) string {
	if slices.Contains(allowed, value) {
		return value
	}
	return LabelOther
}

// RouteLabel maps a request path to one of the registered routes, keeping
// unknown paths (scanners, typos) from creating new series.
func RouteLabel(path string, routes []string) string {
	if slices.Contains(routes, path) {
		return path
	}
	return LabelOther
}
