// Package routing holds the static policy that maps a notification type to its
// default copy, deep link, accent colour and push eligibility.
package routing

import (
	"sort"
	"strings"
)

// Notification types known to the platform.
const (
	TypeGeneric             = "generic"
	TypeMaterialRequested   = "material_requested"
	TypeMaterialApproved    = "material_approved"
	TypeMaterialDelivered   = "material_delivered"
	TypeDamageReported      = "damage_reported"
	TypeTeamMessage         = "team_message"
	TypePainterActivated    = "painter_activated"
	TypeClientLoggedIn      = "client_logged_in"
	TypePainterNotCheckedIn = "painter_not_checked_in"
	TypeInvoiceReceived     = "invoice_received"
	TypeCreditNoteReceived  = "credit_note_received"
	TypePlanningChange      = "planning_change"
	TypeProjectAssigned     = "project_assigned"
	TypeProjectUpdate       = "project_update"
	TypeUpdateReply         = "update_reply"
	TypeCheckInReminder     = "check_in_reminder"
	TypeCheckOutReminder    = "check_out_reminder"
	TypeClientMessage       = "client_message"
)

// RoleAdmin is the only role with a distinct push set. Every other role is
// treated as field staff.
const RoleAdmin = "admin"

// Route is the default presentation of a notification type.
type Route struct {
	Title string
	Link  string
	Color string
}

var genericRoute = Route{Title: "New notification", Link: "/Dashboard", Color: "#2563eb"}

var routes = map[string]Route{
	TypeGeneric:             genericRoute,
	TypeMaterialRequested:   {Title: "New material request", Link: "/MaterialRequests", Color: "#f59e0b"},
	TypeMaterialApproved:    {Title: "Material request approved", Link: "/MaterialRequests", Color: "#10b981"},
	TypeMaterialDelivered:   {Title: "Materials delivered", Link: "/MaterialRequests", Color: "#10b981"},
	TypeDamageReported:      {Title: "Damage reported", Link: "/DamageReports", Color: "#dc2626"},
	TypeTeamMessage:         {Title: "New team message", Link: "/TeamChat", Color: "#6366f1"},
	TypePainterActivated:    {Title: "Painter activated their account", Link: "/TeamManagement", Color: "#10b981"},
	TypeClientLoggedIn:      {Title: "Client logged in to the portal", Link: "/Clients", Color: "#0ea5e9"},
	TypePainterNotCheckedIn: {Title: "Painter has not checked in", Link: "/TimeTracking", Color: "#f97316"},
	TypeInvoiceReceived:     {Title: "Invoice received", Link: "/Invoices", Color: "#14b8a6"},
	TypeCreditNoteReceived:  {Title: "Credit note received", Link: "/Invoices", Color: "#14b8a6"},
	TypePlanningChange:      {Title: "Your planning has changed", Link: "/Planning", Color: "#8b5cf6"},
	TypeProjectAssigned:     {Title: "You have been assigned to a project", Link: "/Projects", Color: "#2563eb"},
	TypeProjectUpdate:       {Title: "Project update", Link: "/Projects", Color: "#2563eb"},
	TypeUpdateReply:         {Title: "New reply to your update", Link: "/Projects", Color: "#6366f1"},
	TypeCheckInReminder:     {Title: "Don't forget to check in", Link: "/CheckIn", Color: "#f97316"},
	TypeCheckOutReminder:    {Title: "Don't forget to check out", Link: "/CheckIn", Color: "#f97316"},
	TypeClientMessage:       {Title: "New message from a client", Link: "/ClientPortal", Color: "#0ea5e9"},
}

var adminPush = map[string]struct{}{
	TypeMaterialRequested:   {},
	TypeDamageReported:      {},
	TypeTeamMessage:         {},
	TypePainterActivated:    {},
	TypeClientLoggedIn:      {},
	TypePainterNotCheckedIn: {},
	TypeInvoiceReceived:     {},
	TypeCreditNoteReceived:  {},
}

var painterPush = map[string]struct{}{
	TypePlanningChange:   {},
	TypeProjectAssigned:  {},
	TypeUpdateReply:      {},
	TypeCheckInReminder:  {},
	TypeCheckOutReminder: {},
	TypeTeamMessage:      {},
}

// Lookup returns the route for a type, falling back to the generic route.
func Lookup(notificationType string) Route {
	if r, ok := routes[notificationType]; ok {
		return r
	}
	return genericRoute
}

// IsKnown reports whether the type has its own route.
func IsKnown(notificationType string) bool {
	_, ok := routes[notificationType]
	return ok
}

func DefaultTitle(notificationType string) string { return Lookup(notificationType).Title }

func DefaultLink(notificationType string) string { return Lookup(notificationType).Link }

func AccentColor(notificationType string) string { return Lookup(notificationType).Color }

// IsPushEligible decides whether a recipient with the given role should get a
// push for this type. forcePush overrides the tables. An empty role means the
// recipient did not resolve and is never eligible on its own.
func IsPushEligible(notificationType, role string, forcePush bool) bool {
	if forcePush {
		return true
	}
	if role == "" {
		return false
	}
	if role == RoleAdmin {
		_, ok := adminPush[notificationType]
		return ok
	}
	_, ok := painterPush[notificationType]
	return ok
}

// Types lists every known notification type in sorted order.
func Types() []string {
	types := make([]string, 0, len(routes))
	for t := range routes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// AbsoluteLink joins the application base URL and an app-relative deep link.
// Links that are already absolute are returned unchanged.
func AbsoluteLink(baseURL, link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	base := strings.TrimRight(baseURL, "/")
	if link == "" {
		return base
	}
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return base + link
}
