package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTitle_Priority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		fields    TitleFields
		wantTitle string
		wantField TitleField
	}{
		{"canonical wins over jobTitle", TitleFields{JobTitleCanonical: "A", JobTitle: "B"}, "A", TitleFieldCanonical},
		{"jobTitle only", TitleFields{JobTitle: "B"}, "B", TitleFieldTitle},
		{"raw only", TitleFields{JobTitleRaw: "C"}, "C", TitleFieldRaw},
		{"blank canonical falls through", TitleFields{JobTitleCanonical: "  ", JobTitleRaw: "C"}, "C", TitleFieldRaw},
		{"trimmed", TitleFields{JobTitle: " SDE II "}, "SDE II", TitleFieldTitle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			title, field, err := ResolveTitle(tt.fields, TitlePriority)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantField, field)
		})
	}
}

func TestResolveTitle_NoneRaises(t *testing.T) {
	t.Parallel()

	_, _, err := ResolveTitle(TitleFields{}, TitlePriority)
	require.Error(t, err)

	var fre *FieldResolutionError
	require.True(t, errors.As(err, &fre))
	assert.Equal(t, TitlePriority, fre.Tried)
	assert.Contains(t, err.Error(), "jobTitleCanonical")
}

func TestJobTitleImpact_TitleCarriesFacility(t *testing.T) {
	t.Parallel()

	_, err := JobTitleImpact{FacilityID: "SEA40"}.Title()
	var fre *FieldResolutionError
	require.True(t, errors.As(err, &fre))
	assert.Equal(t, "SEA40", fre.FacilityID)
	assert.Contains(t, err.Error(), "facilityId=SEA40")
}

func TestTitleFields_Present(t *testing.T) {
	t.Parallel()

	f := TitleFields{JobTitleRaw: "x", JobTitleCanonical: "y"}
	assert.Equal(t, []TitleField{TitleFieldCanonical, TitleFieldRaw}, f.Present())
	assert.Empty(t, TitleFields{}.Present())
}
