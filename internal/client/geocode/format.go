package geocode

import "strings"

// Address holds the address parts the formatter cares about.
type Address struct {
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	Village       string `json:"village"`
	City          string `json:"city"`
	Town          string `json:"town"`
	County        string `json:"county"`
}

// FormatName builds a short place name: the most local part (suburb,
// neighbourhood or village) with the settlement (city, town or county). When
// the address has neither it falls back to the first two comma separated
// segments of displayName. An empty result means nothing usable was found.
func FormatName(addr Address, displayName string) string {
	local := firstNonEmpty(addr.Suburb, addr.Neighbourhood, addr.Village)
	area := firstNonEmpty(addr.City, addr.Town, addr.County)

	parts := make([]string, 0, 2)
	if local != "" {
		parts = append(parts, local)
	}
	if area != "" && !strings.EqualFold(area, local) {
		parts = append(parts, area)
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}

	for _, seg := range strings.Split(displayName, ",") {
		if seg = strings.TrimSpace(seg); seg != "" {
			parts = append(parts, seg)
			if len(parts) == 2 {
				break
			}
		}
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
