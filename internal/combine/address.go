package combine

import (
	"strings"

	"github.com/sells-group/warn-cli/internal/model"
)

// ParseAddress splits free-text notes such as "320 108th Ave NE, Bellevue, WA 98004"
// positionally into line1, city and "state [postal]". Segments that are not
// present stay empty; nothing is inferred.
func ParseAddress(notes string) model.Address {
	var addr model.Address
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return addr
	}

	parts := strings.Split(notes, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	addr.Line1 = parts[0]
	if len(parts) >= 2 {
		addr.City = parts[1]
	}
	if len(parts) >= 3 {
		fields := strings.Fields(parts[2])
		if len(fields) >= 1 {
			addr.State = fields[0]
		}
		if len(fields) >= 2 {
			addr.PostalCode = fields[1]
		}
	}
	return addr
}

// Label builds "CODE - City, ST", dropping whichever of city and state is empty.
func Label(facilityID string, addr model.Address) string {
	city, state := strings.TrimSpace(addr.City), strings.TrimSpace(addr.State)
	switch {
	case city != "" && state != "":
		return facilityID + " - " + city + ", " + state
	case city != "":
		return facilityID + " - " + city
	case state != "":
		return facilityID + " - " + state
	default:
		return facilityID
	}
}

// RemoteFacility is the fixed definition of the remote pseudo-facility.
func RemoteFacility() model.Facility {
	return model.Facility{
		FacilityID: model.RemoteFacilityID,
		Label:      model.RemoteLabel,
		Address:    model.Address{State: model.RemoteState},
	}
}
