package mapview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yusukeinoue-jpg/lime-tool/internal/geo"
)

// Link defaults
const (
	DefaultAdminBaseURL = "https://admintool.lime.bike"
	DefaultRegion       = "MDH3CPXCIE5F3"
	DefaultRouteBaseURL = "https://www.google.com/maps/dir/"
)

// Links builds the outbound URLs of a list entry
type Links struct {
	AdminBaseURL string
	Region       string
	RouteBaseURL string
}

func (l Links) adminBase() string {
	if l.AdminBaseURL == "" {
		return DefaultAdminBaseURL
	}
	return strings.TrimRight(l.AdminBaseURL, "/")
}

func (l Links) routeBase() string {
	if l.RouteBaseURL == "" {
		return DefaultRouteBaseURL
	}
	return l.RouteBaseURL
}

func (l Links) region() string {
	if l.Region == "" {
		return DefaultRegion
	}
	return l.Region
}

// AdminURL deep-links a vehicle in the admin console. id is used verbatim.
func (l Links) AdminURL(id string) string {
	return fmt.Sprintf("%s/vehicle/%s?region=%s", l.adminBase(), id, l.region())
}

// RouteURL is a walking route from the vehicle to the port
func (l Links) RouteURL(from, to geo.Point) string {
	return fmt.Sprintf("%s?api=1&origin=%s&destination=%s&travelmode=walking",
		l.routeBase(), latLon(from), latLon(to))
}

// Owns reports whether u is an admin or route link these settings produce
func (l Links) Owns(u string) bool {
	return strings.HasPrefix(u, l.adminBase()+"/vehicle/") ||
		strings.HasPrefix(u, l.routeBase()+"?api=1&")
}

func latLon(p geo.Point) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}
