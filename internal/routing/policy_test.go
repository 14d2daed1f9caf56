package routing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paintops/go-notification-service/internal/routing"
)

func TestLookup(t *testing.T) {
	t.Run("Known type", func(t *testing.T) {
		r := routing.Lookup(routing.TypeDamageReported)
		assert.Equal(t, "Damage reported", r.Title)
		assert.Equal(t, "/DamageReports", r.Link)
		assert.NotEmpty(t, r.Color)
	})

	t.Run("Unknown type falls back to generic", func(t *testing.T) {
		assert.Equal(t, "New notification", routing.DefaultTitle("definitely_not_a_type"))
		assert.Equal(t, "/Dashboard", routing.DefaultLink("definitely_not_a_type"))
		assert.Equal(t, routing.AccentColor(routing.TypeGeneric), routing.AccentColor(""))
	})

	t.Run("Every known type has complete copy", func(t *testing.T) {
		for _, typ := range routing.Types() {
			r := routing.Lookup(typ)
			assert.NotEmpty(t, r.Title, typ)
			assert.NotEmpty(t, r.Link, typ)
			assert.NotEmpty(t, r.Color, typ)
		}
	})
}

func TestIsPushEligible(t *testing.T) {
	testCases := []struct {
		name     string
		typ      string
		role     string
		force    bool
		expected bool
	}{
		{"Admin gets material requests", routing.TypeMaterialRequested, "admin", false, true},
		{"Painter does not get material requests", routing.TypeMaterialRequested, "painter", false, false},
		{"Admin gets damage reports", routing.TypeDamageReported, "admin", false, true},
		{"Admin gets credit notes", routing.TypeCreditNoteReceived, "admin", false, true},
		{"Painter gets planning changes", routing.TypePlanningChange, "painter", false, true},
		{"Admin does not get planning changes", routing.TypePlanningChange, "admin", false, false},
		{"Any non-admin role uses the painter set", routing.TypeCheckInReminder, "client", false, true},
		{"Team message reaches both", routing.TypeTeamMessage, "admin", false, true},
		{"Team message reaches painters", routing.TypeTeamMessage, "painter", false, true},
		{"Unknown type is never eligible", "unknown", "admin", false, false},
		{"Unresolved role is never eligible", routing.TypeTeamMessage, "", false, false},
		{"Force overrides everything", "unknown", "anyrole", true, true},
		{"Force overrides missing role", routing.TypeMaterialRequested, "", true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, routing.IsPushEligible(tc.typ, tc.role, tc.force))
		})
	}
}

func TestAbsoluteLink(t *testing.T) {
	assert.Equal(t, "https://app.example.com/Planning", routing.AbsoluteLink("https://app.example.com/", "/Planning"))
	assert.Equal(t, "https://app.example.com/Planning", routing.AbsoluteLink("https://app.example.com", "Planning"))
	assert.Equal(t, "https://app.example.com", routing.AbsoluteLink("https://app.example.com/", ""))
	assert.Equal(t, "https://other.example.com/x", routing.AbsoluteLink("https://app.example.com", "https://other.example.com/x"))
	assert.Equal(t, "/Dashboard", routing.AbsoluteLink("", "/Dashboard"))
}

func TestIsKnown(t *testing.T) {
	assert.True(t, routing.IsKnown(routing.TypeInvoiceReceived))
	assert.False(t, routing.IsKnown("made_up"))
}
